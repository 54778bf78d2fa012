package transaction

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"scalpbot/internal/model"
	"scalpbot/pkg/kafka"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

func newRecord(orderID string, side model.OrderSide, status model.TransactionStatus) model.TransactionRecord {
	return model.NewTransactionRecord(model.OrderState{
		ID:       orderID,
		Side:     side,
		Price:    decimal.RequireFromString("1454.018"),
		Quantity: decimal.RequireFromString("35"),
	}, status, "BTC/USD", "multi-order-scalp", "stub", time.Unix(1700000000, 0).UTC())
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	b, _ := s.Save(ctx, newRecord("1", model.Buy, model.StatusSent))
	_, _ = s.Save(ctx, newRecord("1", model.Buy, model.StatusFilled))
	_, _ = s.Save(ctx, newRecord("2", model.Sell, model.StatusSent))

	if b.ID == 0 {
		t.Fatal("store should assign an id")
	}
	all, _ := s.FindAll(ctx)
	if len(all) != 3 {
		t.Fatalf("FindAll = %d", len(all))
	}
	got, err := s.FindByID(ctx, b.ID)
	if err != nil || got.Status != model.StatusSent {
		t.Errorf("FindByID = %+v, %v", got, err)
	}
	if _, err := s.FindByID(ctx, -1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	buys, _ := s.FindBySide(ctx, model.Buy)
	if len(buys) != 2 {
		t.Errorf("buys = %d", len(buys))
	}
	last, _ := s.Find(ctx, model.TransactionQuery{Limit: 1})
	if len(last) != 1 || last[0].OrderID != "2" {
		t.Errorf("latest = %+v", last)
	}
}

func TestFanout(t *testing.T) {
	ctx := context.Background()
	primary := NewMemoryStore()
	secondary := NewMemoryStore()
	boom := errors.New("disk full")
	failing := SinkFunc(func(ctx context.Context, r model.TransactionRecord) (model.TransactionRecord, error) {
		return r, boom
	})

	f := NewFanout(primary, nil, failing, secondary)
	saved, err := f.Save(ctx, newRecord("7", model.Buy, model.StatusSent))
	if !errors.Is(err, boom) {
		t.Errorf("expected combined error, got %v", err)
	}
	if saved.ID == 0 {
		t.Error("result should come from the primary store")
	}
	if primary.Len() != 1 || secondary.Len() != 1 {
		t.Errorf("a failing sink must not stop the others: %d %d", primary.Len(), secondary.Len())
	}
}

func TestJournalSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.json")
	j := NewJournalSink(path)
	if _, err := j.Save(context.Background(), newRecord("1", model.Buy, model.StatusSent)); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		t.Fatal("journal is empty")
	}
	var got model.TransactionRecord
	if err := json.Unmarshal(sc.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.OrderID != "1" || !got.Price.Equal(decimal.RequireFromString("1454.018")) {
		t.Errorf("decoded = %+v", got)
	}
}

// fakeBroker 同时充当生产者和消费者
type fakeBroker struct {
	fails    int
	messages []kafka.Message
}

func (b *fakeBroker) Produce(ctx context.Context, key []byte, value []byte) error {
	if b.fails > 0 {
		b.fails--
		return errors.New("leader not available")
	}
	b.messages = append(b.messages, kafka.Message{Key: key, Value: value})
	return nil
}

func (b *fakeBroker) Close() error { return nil }

func (b *fakeBroker) Consume(ctx context.Context, topic string, groupID string) (<-chan kafka.Message, error) {
	ch := make(chan kafka.Message, len(b.messages)+1)
	for _, m := range b.messages {
		ch <- m
	}
	ch <- kafka.Message{Value: []byte("not json")}
	close(ch)
	return ch, nil
}

func TestKafkaSinkAndMirror(t *testing.T) {
	ctx := context.Background()
	broker := &fakeBroker{fails: 1}
	sink := NewKafkaSink(broker)
	sink.delay = time.Millisecond

	if _, err := sink.Save(ctx, newRecord("9", model.Sell, model.StatusSent)); err != nil {
		t.Fatalf("save should succeed after retry: %v", err)
	}
	if _, err := sink.Save(ctx, newRecord("9", model.Sell, model.StatusFilled)); err != nil {
		t.Fatal(err)
	}
	if len(broker.messages) != 2 || string(broker.messages[0].Key) != "9" {
		t.Fatalf("messages = %+v", broker.messages)
	}

	dst := NewMemoryStore()
	if err := Mirror(ctx, broker, "scalpbot_transactions", "audit", dst); err != nil {
		t.Fatal(err)
	}
	got, _ := dst.FindAll(ctx)
	if len(got) != 2 || got[1].Status != model.StatusFilled {
		t.Errorf("mirrored = %+v", got)
	}
}
