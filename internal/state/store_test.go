package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/xijx23/optiAgent/internal/tester"
	"github.com/xijx23/optiAgent/internal/types"
)

func TestStoreRoundtrip(t *testing.T) {
	store, err := NewStore(t.TempDir(), "knapsack")
	tester.NoErr(t, err)
	tester.Eq(t, store.Name(), "knapsack")
	tester.False(t, store.HasCheckpoints())

	st, err := NewInitialState("knapsack", "pack a knapsack")
	tester.NoErr(t, err)
	tester.NoErr(t, store.SaveState(State0Description, st))
	tester.True(t, store.HasCheckpoints())
	tester.Eq(t, store.LatestCheckpoint(), 0)

	st.Parameters = map[string]types.Parameter{
		"MaxWeight": {Definition: "capacity", Type: types.TypeFloat, Value: 3.5},
	}
	tester.NoErr(t, store.SaveState(State1Params, st))
	tester.Eq(t, store.LatestCheckpoint(), 1)

	back, err := store.LoadState(State1Params)
	tester.NoErr(t, err)
	tester.Eq(t, back.Description, "pack a knapsack")
	tester.Eq(t, back.Parameters["MaxWeight"].Definition, "capacity")
	tester.Eq(t, back.Meta.ProblemName, "knapsack")
}

func TestStoreRejectsTraversal(t *testing.T) {
	base := t.TempDir()
	_, err := NewStore(base, "../escape")
	tester.Err(t, err)

	_, err = NewStore(base, "/etc")
	tester.Err(t, err)
}

func TestStoreRejectsEmptyName(t *testing.T) {
	_, err := NewStore(t.TempDir(), "  ")
	tester.Err(t, err)
}

func TestSaveJSONLoadJSON(t *testing.T) {
	store, err := NewStore(t.TempDir(), "p")
	tester.NoErr(t, err)

	logs := []map[string]string{{"prompt": "a", "response": "b"}}
	tester.NoErr(t, store.SaveJSON(ParamsLog, logs))
	tester.True(t, store.Has(ParamsLog))

	var back []map[string]string
	tester.NoErr(t, store.LoadJSON(ParamsLog, &back))
	tester.Eq(t, back, logs)
}

func TestLoadMissingCheckpoint(t *testing.T) {
	store, err := NewStore(t.TempDir(), "p")
	tester.NoErr(t, err)
	_, err = store.LoadState(State6Code)
	tester.Err(t, err)
}

func TestNewInitialState(t *testing.T) {
	st, err := NewInitialState("knapsack", "  pack it  ")
	tester.NoErr(t, err)
	tester.Eq(t, st.Description, "pack it")
	tester.Eq(t, st.Meta.ProblemName, "knapsack")
	tester.True(t, st.Meta.CreatedAt != "")

	_, err = NewInitialState("knapsack", "   ")
	tester.Err(t, err)
}

func TestTraceSaverAppends(t *testing.T) {
	store, err := NewStore(t.TempDir(), "p")
	tester.NoErr(t, err)
	saver := NewTraceSaver(store)

	ctx := context.Background()
	saver.Before(ctx, "params", "extract the parameters", map[string]any{"description": "knapsack"})
	saver.After(ctx, "params", `{"MaxWeight": {}}`, nil)

	raw, err := os.ReadFile(filepath.Join(store.Root(), "trace", "params.txt"))
	tester.NoErr(t, err)
	text := string(raw)
	tester.Contains(t, text, "extract the parameters")
	tester.Contains(t, text, "[INPUT JSON]")
	tester.Contains(t, text, "[RESPONSE]")
	tester.Contains(t, text, "MaxWeight")
}

func TestTraceSaverRecordsErrors(t *testing.T) {
	store, err := NewStore(t.TempDir(), "p")
	tester.NoErr(t, err)
	saver := NewTraceSaver(store)

	saver.After(context.Background(), "", "", os.ErrDeadlineExceeded)
	raw, err := os.ReadFile(filepath.Join(store.Root(), "trace", "unknown.txt"))
	tester.NoErr(t, err)
	tester.Contains(t, string(raw), "ERROR:")
}
