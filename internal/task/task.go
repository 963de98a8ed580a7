// Package task wires a Source or Destination to a Datastore through a
// single-producer/single-consumer pipeline: one goroutine pulls rows (or
// bytes) while another owns the datastore handle and does the actual
// upload or restore I/O, bounded by a capacity-1 channel so the producer
// never gets more than one chunk ahead of the consumer.
package task

import (
	"bytes"

	"github.com/brinkdb/snapctl/internal/datastore"
)

// ProgressFunc reports how many bytes have moved so far against the
// current known total. max may grow across calls during a dump, since the
// total isn't known until the source finishes.
type ProgressFunc func(transferred, max int64)

// Row is one unit a Source hands to a Dump task: the rewritten bytes to
// persist, sized so the task can decide when to cut a new chunk.
type Row struct {
	Data []byte
}

// RowReader is the slice of Source a Dump task needs.
type RowReader interface {
	Init() error
	Read(onRow func(row Row) error) error
}

// Writer is the slice of Destination a Restore task needs.
type Writer interface {
	Init() error
	Write(data []byte) error
}

// Datastore is the slice of datastore.Datastore the tasks need, narrowed
// so this package never has to know about compression, encryption, or
// the manifest directly.
type Datastore interface {
	Write(partIndex int, data []byte) error
	Read(options datastore.ReadOptions, cb func([]byte) error) error
	DumpSize(options datastore.ReadOptions) (int64, error)
}

type dumpMessage struct {
	part int
	data []byte
	eof  bool
}

// DumpTask streams rows from a Source into a Datastore, chunked to a
// fixed memory budget.
type DumpTask struct {
	source      RowReader
	store       Datastore
	chunkSizeMB int
}

// NewDumpTask builds a DumpTask. chunkSizeMB <= 0 defaults to 100MB, the
// same default the original dump pipeline uses.
func NewDumpTask(source RowReader, store Datastore, chunkSizeMB int) *DumpTask {
	return &DumpTask{source: source, store: store, chunkSizeMB: chunkSizeMB}
}

// Run drives the source-to-datastore pipeline to completion, or returns
// the first error raised by either side.
func (t *DumpTask) Run(progress ProgressFunc) error {
	if err := t.source.Init(); err != nil {
		return err
	}

	chunkSizeMB := t.chunkSizeMB
	if chunkSizeMB <= 0 {
		chunkSizeMB = 100
	}
	bufferSize := int64(chunkSizeMB) * 1024 * 1024

	messages := make(chan dumpMessage, 1)
	errc := make(chan error, 1)

	go func() {
		defer close(errc)
		failed := false
		for msg := range messages {
			if msg.eof {
				return
			}
			if failed {
				continue
			}
			if err := t.store.Write(msg.part, msg.data); err != nil {
				errc <- err
				failed = true
			}
		}
	}()

	var buf bytes.Buffer
	part := 0
	var transferred int64

	if progress != nil {
		progress(0, bufferSize)
	}

	readErr := t.source.Read(func(row Row) error {
		if buf.Len() > 0 && int64(buf.Len())+int64(len(row.Data)) > bufferSize {
			part++
			messages <- dumpMessage{part: part, data: append([]byte(nil), buf.Bytes()...)}
			buf.Reset()
		}

		buf.Write(row.Data)
		transferred += int64(len(row.Data))
		if progress != nil {
			progress(transferred, bufferSize*int64(part+1))
		}
		return nil
	})

	if readErr != nil {
		close(messages)
		for range errc {
		}
		return readErr
	}

	if progress != nil {
		progress(transferred, transferred)
	}

	part++
	messages <- dumpMessage{part: part, data: buf.Bytes()}
	messages <- dumpMessage{eof: true}
	close(messages)

	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

type restoreMessage struct {
	data []byte
	eof  bool
}

// RestoreTask streams parts of one dump out of a Datastore into a
// Destination.
type RestoreTask struct {
	destination Writer
	store       Datastore
	options     datastore.ReadOptions
}

// NewRestoreTask builds a RestoreTask targeting the dump options selects.
func NewRestoreTask(destination Writer, store Datastore, options datastore.ReadOptions) *RestoreTask {
	return &RestoreTask{destination: destination, store: store, options: options}
}

// Run drives the datastore-to-destination pipeline to completion, or
// returns the first error raised by either side.
func (t *RestoreTask) Run(progress ProgressFunc) error {
	if err := t.destination.Init(); err != nil {
		return err
	}

	size, err := t.store.DumpSize(t.options)
	if err != nil {
		return err
	}

	messages := make(chan restoreMessage, 1)
	errc := make(chan error, 1)

	go func() {
		defer close(errc)
		defer close(messages)

		err := t.store.Read(t.options, func(data []byte) error {
			messages <- restoreMessage{data: append([]byte(nil), data...)}
			return nil
		})
		if err != nil {
			errc <- err
			return
		}
		messages <- restoreMessage{eof: true}
	}()

	if progress != nil {
		progress(0, size)
	}

	var transferred int64
	for msg := range messages {
		if msg.eof {
			break
		}
		transferred += int64(len(msg.data))
		if progress != nil {
			progress(transferred, size)
		}
		if err := t.destination.Write(msg.data); err != nil {
			return err
		}
	}

	for err := range errc {
		if err != nil {
			return err
		}
	}

	if progress != nil {
		progress(size, size)
	}
	return nil
}
