package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// MockClickHouseConn implements driver.Conn for testing
type MockClickHouseConn struct {
	driver.Conn

	mu          sync.Mutex
	Batches     []*MockBatch
	ExecQueries []string
	PrepareErr  error
	SendErr     error
}

func (m *MockClickHouseConn) Exec(ctx context.Context, query string, args ...interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExecQueries = append(m.ExecQueries, query)
	return nil
}

func (m *MockClickHouseConn) PrepareBatch(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error) {
	if m.PrepareErr != nil {
		return nil, m.PrepareErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b := &MockBatch{sendErr: m.SendErr}
	m.Batches = append(m.Batches, b)
	return b, nil
}

// SentRows returns every row of every successfully sent batch.
func (m *MockClickHouseConn) SentRows() [][]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows [][]interface{}
	for _, b := range m.Batches {
		if b.sent {
			rows = append(rows, b.rows...)
		}
	}
	return rows
}

type MockBatch struct {
	driver.Batch
	rows    [][]interface{}
	sent    bool
	aborted bool
	sendErr error
}

func (m *MockBatch) IsSent() bool {
	return m.sent
}

func (m *MockBatch) Rows() int {
	return len(m.rows)
}

func (m *MockBatch) Append(v ...interface{}) error {
	if len(v) != 12 {
		return errors.New("unexpected column count")
	}
	m.rows = append(m.rows, v)
	return nil
}

func (m *MockBatch) Send() error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = true
	return nil
}

func (m *MockBatch) Abort() error {
	m.aborted = true
	return nil
}
