package database

import "context"

// MemoryDB is the handle for the in-process backend. It has nothing to dial.
type MemoryDB struct{}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{}
}

func (m *MemoryDB) Connect(context.Context) error { return nil }
func (m *MemoryDB) Close(context.Context) error   { return nil }
func (m *MemoryDB) Ping(context.Context) error    { return nil }
func (m *MemoryDB) GetType() DatabaseType         { return InMemory }

func (m *MemoryDB) HealthCheck(context.Context) map[string]error {
	return map[string]error{"memory": nil}
}
