package transform

import "fmt"

// No fake-data generator library appears as a dependency anywhere in the
// example corpus (the source's `fake` crate has no Go equivalent in the
// retrieved repos or their manifests). These helpers are a small,
// self-contained stand-in built on the same crypto/rand helpers as
// builtins.go, rather than reaching for an unvetted ecosystem package with
// no grounding in the corpus.

var firstNames = []string{
	"Alex", "Taylor", "Jordan", "Casey", "Morgan", "Riley", "Avery", "Jamie",
	"Quinn", "Rowan", "Skyler", "Hayden", "Emerson", "Finley", "Dakota",
}

var emailDomains = []string{"example.com", "mailinator.com", "fastmail.test", "corp.invalid"}

func pickIndex(n int) int {
	v := randomInt64() % int64(n)
	if v < 0 {
		v += int64(n)
	}
	return int(v)
}

func fakeFirstName() string {
	return firstNames[pickIndex(len(firstNames))]
}

func fakeEmail() string {
	local := randomString(8)
	domain := emailDomains[pickIndex(len(emailDomains))]
	return fmt.Sprintf("%s@%s", local, domain)
}

func fakePhoneNumber() string {
	digits := make([]byte, 10)
	for i := range digits {
		digits[i] = byte('0' + (randomInt64()%10+10)%10)
	}
	return fmt.Sprintf("+1-%s-%s-%s", digits[0:3], digits[3:6], digits[6:10])
}

func fakeCreditCard() string {
	groups := make([]string, 4)
	for i := range groups {
		n := (randomInt64()%9000 + 1000)
		if n < 0 {
			n = -n
		}
		groups[i] = fmt.Sprintf("%04d", n)
	}
	return fmt.Sprintf("%s %s %s %s", groups[0], groups[1], groups[2], groups[3])
}
