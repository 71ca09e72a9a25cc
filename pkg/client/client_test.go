package client

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/dd0wney/kvconform/pkg/store"
)

// initAPIVersion pins the current API version for one test, undoing any
// selection a previous test left behind.
func initAPIVersion(t *testing.T) {
	t.Helper()
	resetAPIVersion()
	if err := SelectAPIVersion(APIVersionCurrent); err != nil {
		t.Fatalf("SelectAPIVersion failed: %v", err)
	}
	t.Cleanup(resetAPIVersion)
}

// countingDriver records option calls so tests can observe whether a
// SetOption reached the driver at all.
type countingDriver struct {
	optionCalls []string
}

func (d *countingDriver) setOption(name string, value int64) error {
	d.optionCalls = append(d.optionCalls, name)
	return nil
}

func (d *countingDriver) begin() (txnDriver, error) { return nil, errors.New("not implemented") }
func (d *countingDriver) close() error              { return nil }

func TestSelectAPIVersion(t *testing.T) {
	resetAPIVersion()
	t.Cleanup(resetAPIVersion)

	if _, err := Open("local:test"); !IsConfiguration(err) || !errors.Is(err, ErrAPIVersionRequired) {
		t.Fatalf("Open before SelectAPIVersion = %v, want ErrAPIVersionRequired", err)
	}

	if err := SelectAPIVersion(APIVersionCurrent); err != nil {
		t.Fatalf("SelectAPIVersion failed: %v", err)
	}

	// Selecting the same version again is a no-op.
	if err := SelectAPIVersion(APIVersionCurrent); err != nil {
		t.Errorf("repeat selection of the same version failed: %v", err)
	}

	// Selecting a different version is a reconfiguration.
	err := SelectAPIVersion(APIVersionCurrent + 1)
	if !IsConfiguration(err) {
		t.Errorf("conflicting selection = %v, want ConfigurationError", err)
	}
}

func TestSelectAPIVersionUnsupported(t *testing.T) {
	resetAPIVersion()
	t.Cleanup(resetAPIVersion)

	for _, version := range []int{0, -1, APIVersionCurrent + 1} {
		err := SelectAPIVersion(version)
		if !errors.Is(err, ErrAPIVersionUnsupported) {
			t.Errorf("SelectAPIVersion(%d) = %v, want ErrAPIVersionUnsupported", version, err)
		}
	}
}

func TestOpenMalformedEndpoint(t *testing.T) {
	initAPIVersion(t)

	_, err := Open("definitely-not-an-endpoint")
	if !IsConnection(err) || !errors.Is(err, ErrEndpointMalformed) {
		t.Errorf("Open = %v, want ConnectionError wrapping ErrEndpointMalformed", err)
	}
}

func TestUnknownOptionRejected(t *testing.T) {
	initAPIVersion(t)

	db, err := Open("local:test")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	err = db.SetOption("transaction_timeout", 2000) // missing _ms suffix
	if !IsConfiguration(err) || !errors.Is(err, ErrUnknownOption) {
		t.Errorf("SetOption = %v, want ConfigurationError wrapping ErrUnknownOption", err)
	}
}

func TestOptionIdempotent(t *testing.T) {
	initAPIVersion(t)

	drv := &countingDriver{}
	db := newDatabase("local:test", drv)

	if err := db.SetOption(OptionTransactionSizeLimitBytes, 1000); err != nil {
		t.Fatalf("SetOption failed: %v", err)
	}
	if err := db.SetOption(OptionTransactionSizeLimitBytes, 1000); err != nil {
		t.Fatalf("repeat SetOption failed: %v", err)
	}
	if got := len(drv.optionCalls); got != 1 {
		t.Errorf("driver saw %d option calls, want 1", got)
	}

	// A different value goes through again.
	if err := db.SetOption(OptionTransactionSizeLimitBytes, 2000); err != nil {
		t.Fatalf("SetOption failed: %v", err)
	}
	if got := len(drv.optionCalls); got != 2 {
		t.Errorf("driver saw %d option calls, want 2", got)
	}
}

func TestRetryLimitStaysClientSide(t *testing.T) {
	initAPIVersion(t)

	drv := &countingDriver{}
	db := newDatabase("local:test", drv)

	if err := db.SetOption(OptionTransactionRetryLimit, 3); err != nil {
		t.Fatalf("SetOption failed: %v", err)
	}
	if len(drv.optionCalls) != 0 {
		t.Errorf("retry limit was forwarded to the driver: %v", drv.optionCalls)
	}
	if db.retryLimit != 3 {
		t.Errorf("retryLimit = %d, want 3", db.retryLimit)
	}
}

func TestRoundTrip(t *testing.T) {
	initAPIVersion(t)

	db, err := Open("local:test")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	value := bytes.Repeat([]byte{'a'}, 1024)
	if err := db.Set([]byte("t1"), value); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := db.Get([]byte("t1"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, value) {
		t.Errorf("Get returned %d bytes, want %d identical bytes", len(got), len(value))
	}
}

func TestGetMissingKey(t *testing.T) {
	initAPIVersion(t)

	db, err := Open("local:test")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if _, err := db.Get([]byte("absent")); !store.IsNotFound(err) {
		t.Errorf("Get = %v, want key not found", err)
	}
}

func TestSizeLimitSurfacesFromCommit(t *testing.T) {
	initAPIVersion(t)

	db, err := Open("local:test")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if err := db.SetOption(OptionTransactionSizeLimitBytes, 1000); err != nil {
		t.Fatalf("SetOption failed: %v", err)
	}
	err = db.Set([]byte("t2"), bytes.Repeat([]byte{'a'}, 1024))
	if store.CodeOf(err) != store.CodeTransactionTooLarge {
		t.Errorf("Set = %v, want code %d", err, store.CodeTransactionTooLarge)
	}

	// The rejected write must not be visible.
	if _, err := db.Get([]byte("t2")); !store.IsNotFound(err) {
		t.Errorf("rejected write became visible: %v", err)
	}
}

func TestTransactionSizeLimitOverride(t *testing.T) {
	initAPIVersion(t)

	db, err := Open("local:test")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if err := db.SetOption(OptionTransactionSizeLimitBytes, 1_000_000); err != nil {
		t.Fatalf("SetOption failed: %v", err)
	}

	err = db.Transact(func(txn *Transaction) error {
		if err := txn.SetOption(OptionTransactionSizeLimitBytes, 1000); err != nil {
			return err
		}
		return txn.Set([]byte("t3"), bytes.Repeat([]byte{'a'}, 1024))
	})
	if store.CodeOf(err) != store.CodeTransactionTooLarge {
		t.Errorf("Transact = %v, want code %d", err, store.CodeTransactionTooLarge)
	}
}

func TestTransactRetriesThenSucceeds(t *testing.T) {
	initAPIVersion(t)

	st := store.New()
	db, err := Embedded(st)
	if err != nil {
		t.Fatalf("Embedded failed: %v", err)
	}
	defer db.Close()

	if err := db.Set([]byte("k"), []byte("v0")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// The first two attempts collide with an external writer, the third
	// goes through.
	attempts := 0
	err = db.Transact(func(txn *Transaction) error {
		attempts++
		if _, err := txn.Get([]byte("k")); err != nil {
			return err
		}
		if attempts <= 2 {
			conflictingCommit(t, st, []byte("k"))
		}
		return txn.Set([]byte("k"), []byte("mine"))
	})
	if err != nil {
		t.Fatalf("Transact failed: %v", err)
	}
	if attempts != 3 {
		t.Errorf("fn ran %d times, want 3", attempts)
	}
}

func TestTransactRetryExhaustion(t *testing.T) {
	initAPIVersion(t)

	st := store.New()
	db, err := Embedded(st)
	if err != nil {
		t.Fatalf("Embedded failed: %v", err)
	}
	defer db.Close()

	if err := db.SetOption(OptionTransactionRetryLimit, 3); err != nil {
		t.Fatalf("SetOption failed: %v", err)
	}
	if err := db.Set([]byte("k"), []byte("v0")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Every attempt collides, so the retries run out.
	attempts := 0
	err = db.Transact(func(txn *Transaction) error {
		attempts++
		if _, err := txn.Get([]byte("k")); err != nil {
			return err
		}
		conflictingCommit(t, st, []byte("k"))
		return txn.Set([]byte("k"), []byte("mine"))
	})
	if store.CodeOf(err) != store.CodeNotCommitted {
		t.Fatalf("Transact = %v, want code %d", err, store.CodeNotCommitted)
	}
	if attempts != 4 {
		t.Errorf("fn ran %d times, want retry limit 3 plus the initial attempt", attempts)
	}
}

func TestTransactTimeoutNotRetried(t *testing.T) {
	initAPIVersion(t)

	db, err := Open("local:test")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if err := db.SetOption(OptionTransactionTimeoutMS, 50); err != nil {
		t.Fatalf("SetOption failed: %v", err)
	}

	attempts := 0
	err = db.Transact(func(txn *Transaction) error {
		attempts++
		time.Sleep(80 * time.Millisecond)
		return txn.Set([]byte("k"), []byte("v"))
	})
	if store.CodeOf(err) != store.CodeTransactionTimedOut {
		t.Errorf("Transact = %v, want code %d", err, store.CodeTransactionTimedOut)
	}
	if attempts != 1 {
		t.Errorf("fn ran %d times, want 1 (timeouts are not retried)", attempts)
	}
}

func TestTransactFnErrorCancels(t *testing.T) {
	initAPIVersion(t)

	db, err := Open("local:test")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	boom := errors.New("caller gave up")
	err = db.Transact(func(txn *Transaction) error {
		if err := txn.Set([]byte("k"), []byte("v")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Transact = %v, want the fn error", err)
	}
	if _, err := db.Get([]byte("k")); !store.IsNotFound(err) {
		t.Errorf("abandoned write became visible: %v", err)
	}
}

func TestClosedDatabase(t *testing.T) {
	initAPIVersion(t)

	db, err := Open("local:test")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	if err := db.SetOption(OptionTransactionTimeoutMS, 2000); !errors.Is(err, ErrDatabaseClosed) {
		t.Errorf("SetOption on closed database = %v, want ErrDatabaseClosed", err)
	}
	err = db.Transact(func(txn *Transaction) error { return nil })
	if !errors.Is(err, ErrDatabaseClosed) {
		t.Errorf("Transact on closed database = %v, want ErrDatabaseClosed", err)
	}
}

// conflictingCommit writes key directly through the store, bypassing the
// client, to invalidate any snapshot that read it.
func conflictingCommit(t *testing.T, st *store.Store, key []byte) {
	t.Helper()
	txn, err := st.Begin(time.Time{})
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := txn.Set(key, []byte("external")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := txn.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
}
