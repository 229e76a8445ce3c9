package testutil

import (
	"context"
	"errors"
	"strings"

	"github.com/leapstack-labs/kudusql/pkg/core"
)

// FakeEngine is a scripted engine shared by every client it hands out.
// It records statements in order and answers queries from Results.
type FakeEngine struct {
	// Results maps exact SQL text to the rows returned for it.
	Results map[string][]core.Row

	// FailOn makes every statement starting with the key fail with the value.
	FailOn map[string]error

	// ConnectErr makes Connect fail.
	ConnectErr error

	Statements []string
	Connects   int
	Closes     int

	failNext []error
}

// NewFakeEngine creates an engine with no scripted results.
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{Results: map[string][]core.Row{}, FailOn: map[string]error{}}
}

// FailNext queues errors returned by the next calls, one per call. A nil
// entry lets that call succeed.
func (f *FakeEngine) FailNext(errs ...error) {
	f.failNext = append(f.failNext, errs...)
}

// On scripts the rows returned for sql.
func (f *FakeEngine) On(sql string, rows ...core.Row) {
	f.Results[sql] = rows
}

// Connector returns a core.Connector handing out clients of this engine.
func (f *FakeEngine) Connector() core.Connector {
	return func(_ context.Context, _ core.AdapterConfig) (core.Client, error) {
		f.Connects++
		if f.ConnectErr != nil {
			return nil, f.ConnectErr
		}
		return &fakeClient{engine: f}, nil
	}
}

// Executed returns the statements that did not fail.
func (f *FakeEngine) Executed() []string {
	return append([]string(nil), f.Statements...)
}

func (f *FakeEngine) call(sql string) error {
	if len(f.failNext) > 0 {
		err := f.failNext[0]
		f.failNext = f.failNext[1:]
		if err != nil {
			return err
		}
	}
	for prefix, err := range f.FailOn {
		if strings.HasPrefix(sql, prefix) {
			return err
		}
	}
	f.Statements = append(f.Statements, sql)
	return nil
}

type fakeClient struct {
	engine *FakeEngine
	closed bool
}

func (c *fakeClient) Execute(_ context.Context, sql string) error {
	if c.closed {
		return errors.New("connection closed")
	}
	return c.engine.call(sql)
}

func (c *fakeClient) Query(_ context.Context, sql string) ([]core.Row, error) {
	if c.closed {
		return nil, errors.New("connection closed")
	}
	if err := c.engine.call(sql); err != nil {
		return nil, err
	}
	return c.engine.Results[sql], nil
}

func (c *fakeClient) Close() error {
	c.closed = true
	c.engine.Closes++
	return nil
}

// Row builds a core.Row from alternating name/value pairs.
func Row(kv ...any) core.Row {
	row := make(core.Row, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		name, _ := kv[i].(string)
		row = append(row, core.Field{Name: name, Value: kv[i+1]})
	}
	return row
}

// DescribeRow builds a DESCRIBE row for a Kudu column.
func DescribeRow(name, sqlType string, primaryKey, nullable bool, defaultValue string) core.Row {
	return Row(
		"name", name,
		"type", sqlType,
		"comment", "",
		"primary_key", boolString(primaryKey),
		"nullable", boolString(nullable),
		"default_value", defaultValue,
		"encoding", "AUTO_ENCODING",
		"compression", "DEFAULT_COMPRESSION",
		"block_size", "0",
	)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
