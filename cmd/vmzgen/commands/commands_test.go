package commands

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/vmartowicz/vmz-generator-jhipster/pkg/configstore"
	"github.com/vmartowicz/vmz-generator-jhipster/pkg/telemetry"
)

func TestDebouncerCoalescesBursts(t *testing.T) {
	var fired int32
	d := newDebouncer(50*time.Millisecond, func() {
		atomic.AddInt32(&fired, 1)
	})
	defer d.stop()

	for i := 0; i < 10; i++ {
		d.trigger()
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)
	if got := atomic.LoadInt32(&fired); got != 1 {
		t.Errorf("a burst of triggers must fire once, fired %d times", got)
	}
}

func TestDebouncerStopPreventsFiring(t *testing.T) {
	var fired int32
	d := newDebouncer(30*time.Millisecond, func() {
		atomic.AddInt32(&fired, 1)
	})

	d.trigger()
	d.stop()

	time.Sleep(100 * time.Millisecond)
	if atomic.LoadInt32(&fired) != 0 {
		t.Error("a stopped debouncer must not fire")
	}
}

func TestWatchSingleEditRegeneratesOnce(t *testing.T) {
	dir := t.TempDir()
	store := configstore.NewStore(dir)
	if err := store.Save("store", map[string]interface{}{"baseName": "store"}); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	// The regenerate func re-saves the record exactly the way a generation
	// run's save-config task does. With an unchanged merge the store leaves
	// the file alone, so the watcher must not see the run's own save.
	var runs int32
	regenerate := func(ctx context.Context) {
		atomic.AddInt32(&runs, 1)
		if err := store.Save("store", map[string]interface{}{"baseName": "store"}); err != nil {
			t.Errorf("save during regeneration: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- watchRecords(ctx, dir, []string{"store"}, telemetry.Nop(), regenerate)
	}()

	// Give the watcher time to register, then make one edit.
	time.Sleep(100 * time.Millisecond)
	if err := store.Save("store", map[string]interface{}{
		"baseName":      "store",
		"ingressDomain": "shop.example.com",
	}); err != nil {
		t.Fatalf("edit record: %v", err)
	}

	// The debounce window is 500ms; wait long enough for any feedback loop
	// to show up as a second run.
	time.Sleep(1500 * time.Millisecond)
	if got := atomic.LoadInt32(&runs); got != 1 {
		t.Errorf("one edit must trigger exactly one regeneration, got %d", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watch: %v", err)
	}
}

func TestCollectOverridesOnlyChangedFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("namespace", "", "")
	flags.String("generator-type", "", "")
	flags.Bool("clustered", false, "")
	flags.String("out", ".", "")

	if err := flags.Parse([]string{"--namespace", "shop", "--clustered"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	overrides := collectOverrides(flags)
	if overrides["kubernetesNamespace"] != "shop" {
		t.Errorf("namespace override missing: %v", overrides)
	}
	if overrides["clustered"] != true {
		t.Errorf("clustered override missing: %v", overrides)
	}
	if _, present := overrides["generatorType"]; present {
		t.Error("unchanged flags must not override persisted config")
	}
	if _, present := overrides["out"]; present {
		t.Error("non-record flags must never leak into the config record")
	}
}
