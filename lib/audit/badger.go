package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ValentinKolb/dLock/lib/util"
	"github.com/dgraph-io/badger/v4"
	"github.com/lni/dragonboat/v4/logger"
)

// --------------------------------------------------------------------------
// Database
// --------------------------------------------------------------------------

// DBConfig configures the audit database
type DBConfig struct {
	// Path is the directory of the database. Ignored if InMemory is set.
	Path string
	// InMemory keeps the database in memory only (used by tests)
	InMemory bool
	// SyncWrites fsyncs every write batch
	SyncWrites bool
}

// OpenDB opens (or creates) the audit database
func OpenDB(cfg DBConfig) (*badger.DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("audit database path is required")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("failed to create audit directory %s: %v", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	// the dragonboat logger already implements badger.Logger
	opts = opts.
		WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(logger.GetLogger("badger"))

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %v", err)
	}
	return db, nil
}

// --------------------------------------------------------------------------
// Sink
// --------------------------------------------------------------------------

// maxBatch is the maximum number of events written in one transaction
const maxBatch = 256

// BadgerSink persists events to a badger database. Record only enqueues the
// event; a single writer goroutine stores the events in record order.
type BadgerSink struct {
	db    *badger.DB
	node  string
	queue *util.MPSC[Event]
	done  chan struct{}
}

// NewBadgerSink starts the writer goroutine. Close must be called to flush pending events.
func NewBadgerSink(db *badger.DB, node string) *BadgerSink {
	s := &BadgerSink{
		db:    db,
		node:  node,
		queue: util.NewMPSC[Event](),
		done:  make(chan struct{}),
	}
	go s.writer()
	return s
}

func (s *BadgerSink) Record(e Event) {
	if !s.queue.Push(e) {
		Logger.Warningf("audit sink closed, dropping event %s", e)
	}
}

// Close stops accepting events and waits until all queued events are written.
// The database is not closed.
func (s *BadgerSink) Close() {
	s.queue.Close()
	<-s.done
}

func (s *BadgerSink) writer() {
	defer close(s.done)

	recv := s.queue.Recv()
	for e := range recv {
		batch := []Event{e}

		// pick up whatever is already waiting
	collect:
		for len(batch) < maxBatch {
			select {
			case next, ok := <-recv:
				if !ok {
					break collect
				}
				batch = append(batch, next)
			default:
				break collect
			}
		}

		if err := s.write(batch); err != nil {
			Logger.Errorf("failed to write %d audit events: %v", len(batch), err)
		}
	}
}

func (s *BadgerSink) write(batch []Event) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, e := range batch {
		value, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if err := wb.Set(EventKey(e), value); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// --------------------------------------------------------------------------
// Keys and reading
// --------------------------------------------------------------------------

// EventKey returns the key of an event. Keys sort by node, then time, then sequence number.
func EventKey(e Event) []byte {
	return []byte(fmt.Sprintf("%s%020d/%08d", NodePrefix(e.Node), e.Time.UnixNano(), e.Seq))
}

// NodePrefix returns the key prefix of all events of a node
func NodePrefix(node string) string {
	return "audit/" + node + "/"
}

// ReadEvents returns all stored events whose key starts with prefix, in key order.
// Use NodePrefix to select one node, or "audit/" for all.
func ReadEvents(db *badger.DB, prefix string) ([]Event, error) {
	var events []Event

	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			var e Event
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil {
				return fmt.Errorf("failed to decode audit event %s: %v", it.Item().Key(), err)
			}
			events = append(events, e)
		}
		return nil
	})
	return events, err
}
