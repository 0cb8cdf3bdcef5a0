package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"triarb/internal/book"
	"triarb/internal/symbol"
)

type fakeClient struct {
	ch chan Update
}

func newFakeClient() *fakeClient {
	return &fakeClient{ch: make(chan Update, 16)}
}

func (f *fakeClient) Connect(ctx context.Context) error { return nil }
func (f *fakeClient) Subscribe() error                  { return nil }
func (f *fakeClient) Run(ctx context.Context)           {}
func (f *fakeClient) BookCh() <-chan Update             { return f.ch }
func (f *fakeClient) Close() error                      { close(f.ch); return nil }

func lvl(price string) book.Level {
	return book.Level{Price: decimal.RequireFromString(price), Qty: decimal.RequireFromString("1")}
}

func TestIngestor_PublishesValidUpdates(t *testing.T) {
	store := book.NewStore(2)
	in := NewIngestor(store, zap.NewNop())
	client := newFakeClient()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var notified []Update
	done := make(chan struct{})
	go func() {
		in.Run(ctx, client, func(u Update) { notified = append(notified, u) })
		close(done)
	}()

	client.ch <- Update{Symbol: symbol.SymbolID(0), Top: &book.Top{Bids: []book.Level{lvl("100")}, Asks: []book.Level{lvl("101")}}}
	client.ch <- Update{Symbol: symbol.SymbolID(0), Top: &book.Top{Bids: []book.Level{lvl("101")}, Asks: []book.Level{lvl("100")}}} // crossed, dropped

	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	if in.UpdatesIn() != 2 {
		t.Fatalf("UpdatesIn() = %d, want 2", in.UpdatesIn())
	}
	if in.MalformedUpdates() != 1 {
		t.Fatalf("MalformedUpdates() = %d, want 1", in.MalformedUpdates())
	}
	if len(notified) != 1 {
		t.Fatalf("notified %d times, want 1", len(notified))
	}

	snap, ok := store.Get(symbol.SymbolID(0))
	if !ok {
		t.Fatalf("expected snapshot published")
	}
	if snap.Version != 1 {
		t.Fatalf("Version = %d, want 1 (crossed update must not bump it)", snap.Version)
	}
}
