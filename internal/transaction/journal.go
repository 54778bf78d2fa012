package transaction

import (
	"context"
	"scalpbot/internal/model"
	"scalpbot/pkg/recorder"
)

// JournalSink 把流水追加到本地 JSON 文件
type JournalSink struct {
	rec *recorder.JSONFileRecorder
}

func NewJournalSink(path string) *JournalSink {
	return &JournalSink{rec: recorder.NewJSONFileRecorder(path)}
}

func (j *JournalSink) Save(ctx context.Context, record model.TransactionRecord) (model.TransactionRecord, error) {
	return record, j.rec.Record(record)
}
