package graph

import (
	"context"
	"strings"
	"sync"
)

// MemoryClient is an in-memory Client for unit tests. Statements are answered
// by registered responders (matched on a statement substring) or, for reads,
// by queued results.
type MemoryClient struct {
	mu           sync.Mutex
	writeCalls   []ExecutedQuery
	readCalls    []ExecutedQuery
	readResults  []Result
	readers      []responder
	writers      []responder
	err          error
	connectivity error
	closed       bool
}

type responder struct {
	match string
	fn    func(ExecutedQuery) (Result, error)
}

// ExecutedQuery captures a cypher statement and its parameters.
type ExecutedQuery struct {
	Query  string
	Params map[string]any
}

// NewMemoryClient returns an empty MemoryClient.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{}
}

// WithError makes every subsequent statement fail with err.
func (m *MemoryClient) WithError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithConnectivityError forces VerifyConnectivity to return err.
func (m *MemoryClient) WithConnectivityError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectivity = err
	return m
}

// PushReadResult queues a result for the next read no responder answers.
func (m *MemoryClient) PushReadResult(res Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readResults = append(m.readResults, res)
}

// OnRead answers every read whose statement contains match.
func (m *MemoryClient) OnRead(match string, fn func(ExecutedQuery) (Result, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readers = append(m.readers, responder{match: match, fn: fn})
}

// OnWrite answers every write whose statement contains match.
func (m *MemoryClient) OnWrite(match string, fn func(ExecutedQuery) (Result, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writers = append(m.writers, responder{match: match, fn: fn})
}

func (m *MemoryClient) ExecuteWrite(_ context.Context, cypher string, params map[string]any) (Result, error) {
	m.mu.Lock()
	if m.err != nil {
		m.mu.Unlock()
		return Result{}, m.err
	}
	query := ExecutedQuery{Query: cypher, Params: cloneMap(params)}
	m.writeCalls = append(m.writeCalls, query)
	fn := lookup(m.writers, cypher)
	m.mu.Unlock()

	if fn != nil {
		return fn(query)
	}
	return Result{}, nil
}

func (m *MemoryClient) ExecuteRead(_ context.Context, cypher string, params map[string]any) (Result, error) {
	m.mu.Lock()
	if m.err != nil {
		m.mu.Unlock()
		return Result{}, m.err
	}
	query := ExecutedQuery{Query: cypher, Params: cloneMap(params)}
	m.readCalls = append(m.readCalls, query)

	if fn := lookup(m.readers, cypher); fn != nil {
		m.mu.Unlock()
		return fn(query)
	}
	defer m.mu.Unlock()
	if len(m.readResults) == 0 {
		return Result{}, nil
	}
	res := m.readResults[0]
	m.readResults = m.readResults[1:]
	return res, nil
}

func (m *MemoryClient) VerifyConnectivity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectivity
}

func (m *MemoryClient) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MemoryClient) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// WriteCalls returns a snapshot of executed write statements.
func (m *MemoryClient) WriteCalls() []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecutedQuery(nil), m.writeCalls...)
}

// ReadCalls returns a snapshot of executed read statements.
func (m *MemoryClient) ReadCalls() []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecutedQuery(nil), m.readCalls...)
}

func lookup(responders []responder, cypher string) func(ExecutedQuery) (Result, error) {
	for _, r := range responders {
		if strings.Contains(cypher, r.match) {
			return r.fn
		}
	}
	return nil
}

func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
