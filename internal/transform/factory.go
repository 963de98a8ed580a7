package transform

import (
	"strconv"
	"strings"

	"github.com/brinkdb/snapctl/internal/errs"
)

// Builtins returns one instance of every registered transformer, with
// placeholder database/table/column identity, for callers that only need
// to enumerate ids and descriptions (e.g. `transformer list`).
func Builtins() []Transformer {
	return []Transformer{
		NewTransient("", "", ""),
		NewRandom("", "", ""),
		NewKeepFirstChar("", "", ""),
		NewFirstName("", "", ""),
		NewEmail("", "", ""),
		NewPhoneNumber("", "", ""),
		NewCreditCard("", "", ""),
		NewRandomDate("", "", ""),
		NewRedacted("", "", "", DefaultRedactedOptions()),
	}
}

// FromSpec builds the transformer a config file names for one column.
// spec is either a bare id ("email") or an id with options
// ("redacted{char=*,width=10}"), the form spec §4.4 and §6 document for a
// transformer config entry.
func FromSpec(spec, database, table, col string) (Transformer, error) {
	id, opts, err := parseSpec(spec)
	if err != nil {
		return nil, err
	}

	switch id {
	case "transient":
		return NewTransient(database, table, col), nil
	case "random":
		return NewRandom(database, table, col), nil
	case "keep-first-char":
		return NewKeepFirstChar(database, table, col), nil
	case "first-name":
		return NewFirstName(database, table, col), nil
	case "email":
		return NewEmail(database, table, col), nil
	case "phone-number":
		return NewPhoneNumber(database, table, col), nil
	case "credit-card":
		return NewCreditCard(database, table, col), nil
	case "random-date":
		return NewRandomDate(database, table, col), nil
	case "redacted":
		redactedOpts := DefaultRedactedOptions()
		if v, ok := opts["char"]; ok && v != "" {
			redactedOpts.Character = []rune(v)[0]
		}
		if v, ok := opts["width"]; ok {
			width, err := strconv.Atoi(v)
			if err != nil {
				return nil, errs.NewConfig("transformer 'redacted': invalid width '" + v + "'")
			}
			redactedOpts.Width = width
		}
		return NewRedacted(database, table, col, redactedOpts), nil
	default:
		return nil, errs.NewConfig("unknown transformer id '" + id + "'")
	}
}

// parseSpec splits "id{k=v,k2=v2}" into its id and option map. A bare id
// with no "{...}" suffix returns an empty option map.
func parseSpec(spec string) (string, map[string]string, error) {
	open := strings.Index(spec, "{")
	if open == -1 {
		return spec, nil, nil
	}
	if !strings.HasSuffix(spec, "}") {
		return "", nil, errs.NewConfig("transformer spec '" + spec + "' has an unterminated option list")
	}

	id := spec[:open]
	body := spec[open+1 : len(spec)-1]

	opts := map[string]string{}
	if body == "" {
		return id, opts, nil
	}

	for _, pair := range strings.Split(body, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return "", nil, errs.NewConfig("transformer spec '" + spec + "' has a malformed option '" + pair + "'")
		}
		opts[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}

	return id, opts, nil
}
