package worker

import (
	"context"
	"net/netip"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"irrexplorer/pkg/config"
	"irrexplorer/pkg/model"
	"irrexplorer/pkg/nrtm"
)

func testLogger() zerolog.Logger { return zerolog.Nop() }

func mustPrefix(t *testing.T, s string) netip.Prefix {
	t.Helper()
	p, err := netip.ParsePrefix(s)
	if err != nil {
		t.Fatalf("bad prefix %q: %v", s, err)
	}
	return p
}

func routeItem(serial uint64, cmd nrtm.Command, source string, prefix netip.Prefix, origin model.Origin) nrtm.Item {
	return nrtm.Item{
		Command: cmd,
		Serial:  serial,
		Object: &model.RouteOrSetObject{
			Source: source,
			Kind:   model.KindRoute,
			Prefix: prefix,
			Origin: origin,
		},
	}
}

func asSetItem(serial uint64, cmd nrtm.Command, source, name string, members []string) nrtm.Item {
	return nrtm.Item{
		Command: cmd,
		Serial:  serial,
		Object: &model.RouteOrSetObject{
			Source:  source,
			Kind:    model.KindAsSet,
			Name:    name,
			Members: members,
		},
	}
}

func resetItem(serial uint64) nrtm.Item {
	return nrtm.Item{Command: nrtm.CmdReset, Serial: serial}
}

func startDBWorker(t *testing.T, items []nrtm.Item) (*DBWorker, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	w := NewDBWorker("ripe", config.FamilyBoth, "", testLogger())
	stream := nrtm.NewReplay(items)
	w.Start(ctx, stream)
	select {
	case <-w.Ready():
	case <-time.After(time.Second):
		t.Fatal("worker never became ready")
	}
	return w, cancel
}

func TestDBWorkerAddThenSearchExact(t *testing.T) {
	p := mustPrefix(t, "192.0.2.0/24")
	w, cancel := startDBWorker(t, []nrtm.Item{routeItem(1, nrtm.CmdAdd, "ripe", p, 65000)})
	defer cancel()

	deadline := time.Now().Add(time.Second)
	for {
		res, err := w.Dispatch(context.Background(), model.SearchExact, p)
		if err != nil {
			t.Fatalf("dispatch: %v", err)
		}
		if set, ok := res.Origins[p]; ok && set.Has(65000) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("origin never appeared for %s", p)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestDBWorkerDuplicateAddIsIdempotentInInverseIndex(t *testing.T) {
	p := mustPrefix(t, "192.0.2.0/24")
	w, cancel := startDBWorker(t, []nrtm.Item{
		routeItem(1, nrtm.CmdAdd, "ripe", p, 65000),
		routeItem(2, nrtm.CmdAdd, "ripe", p, 65000),
	})
	defer cancel()

	deadline := time.Now().Add(time.Second)
	for {
		res, err := w.Dispatch(context.Background(), model.InverseASN, model.Origin(65000))
		if err != nil {
			t.Fatalf("dispatch: %v", err)
		}
		if len(res.Prefixes) == 1 {
			return
		}
		if len(res.Prefixes) > 1 {
			t.Fatalf("expected deduped inverse index, got %v", res.Prefixes)
		}
		if time.Now().After(deadline) {
			t.Fatalf("inverse index never reached expected state, got %v", res.Prefixes)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestDBWorkerDelRemovesOrigin(t *testing.T) {
	p := mustPrefix(t, "192.0.2.0/24")
	w, cancel := startDBWorker(t, []nrtm.Item{
		routeItem(1, nrtm.CmdAdd, "ripe", p, 65000),
		routeItem(2, nrtm.CmdDel, "ripe", p, 65000),
	})
	defer cancel()

	deadline := time.Now().Add(time.Second)
	for {
		res, err := w.Dispatch(context.Background(), model.SearchExact, p)
		if err != nil {
			t.Fatalf("dispatch: %v", err)
		}
		if _, ok := res.Origins[p]; !ok {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("origin was never removed")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestDBWorkerFamilyFilterDropsWrongFamily(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p6 := mustPrefix(t, "2001:db8::/32")
	w := NewDBWorker("ripe", config.FamilyV4, "", testLogger())
	w.Start(ctx, nrtm.NewReplay([]nrtm.Item{routeItem(1, nrtm.CmdAdd, "ripe", p6, 65000)}))
	<-w.Ready()

	time.Sleep(20 * time.Millisecond)
	res, err := w.Dispatch(context.Background(), model.SearchExact, p6)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if _, ok := res.Origins[p6]; ok {
		t.Fatalf("expected v6 prefix to be filtered out by a v4-only family filter")
	}
}

func TestDBWorkerDropsObjectsFromOtherSources(t *testing.T) {
	p := mustPrefix(t, "192.0.2.0/24")
	w, cancel := startDBWorker(t, []nrtm.Item{routeItem(1, nrtm.CmdAdd, "arin", p, 65000)})
	defer cancel()

	time.Sleep(20 * time.Millisecond)
	res, err := w.Dispatch(context.Background(), model.SearchExact, p)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if _, ok := res.Origins[p]; ok {
		t.Fatalf("expected object for a different source to be dropped")
	}
}
