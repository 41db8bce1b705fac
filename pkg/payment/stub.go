package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

// StubProvider is an in-memory processor for development and tests.
// References registered with Register are answered from memory; any other
// stub_ reference verifies as an abandoned transaction, everything else as not found.
type StubProvider struct {
	mu           sync.RWMutex
	transactions map[string]Transaction
}

func NewStubProvider() *StubProvider {
	return &StubProvider{transactions: make(map[string]Transaction)}
}

// Register stores a transaction fixture under its reference.
func (s *StubProvider) Register(tx Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[tx.Reference] = tx
}

// LoadFixtures registers every transaction in a JSON array file.
func (s *StubProvider) LoadFixtures(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("stub fixtures: %w", err)
	}
	var txs []Transaction
	if err := json.Unmarshal(data, &txs); err != nil {
		return 0, fmt.Errorf("stub fixtures %s: %w", path, err)
	}
	for _, tx := range txs {
		s.Register(tx)
	}
	return len(txs), nil
}

func (s *StubProvider) Configured() bool { return true }

func (s *StubProvider) VerifyTransaction(ctx context.Context, reference string) (*VerifyResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	tx, ok := s.transactions[reference]
	s.mu.RUnlock()
	if !ok && strings.HasPrefix(reference, "stub_") {
		tx, ok = Transaction{Reference: reference, Status: "abandoned"}, true
	}
	out := &VerifyResponse{Status: ok}
	if ok {
		out.Message = "Verification successful"
		out.Data = &tx
	} else {
		out.Message = "Transaction reference not found"
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	out.Raw = raw
	return out, nil
}
