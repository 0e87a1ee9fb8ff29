package transform

import (
	"context"
	"sync"
)

// InMemoryLookups serves lookup tables from maps. Used by unit tests and
// local development.
type InMemoryLookups struct {
	mu            sync.RWMutex
	outcodeToBSO  map[string]string
	practiceToBSO map[string]string
}

func NewInMemoryLookups() *InMemoryLookups {
	return &InMemoryLookups{
		outcodeToBSO:  make(map[string]string),
		practiceToBSO: make(map[string]string),
	}
}

// AddOutcode registers an outcode and the BSO code serving it.
func (l *InMemoryLookups) AddOutcode(outcode, bsoCode string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outcodeToBSO[outcode] = bsoCode
}

// AddGPPractice registers a GP practice code and its BSO code.
func (l *InMemoryLookups) AddGPPractice(gpPracticeCode, bsoCode string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.practiceToBSO[gpPracticeCode] = bsoCode
}

func (l *InMemoryLookups) ValidOutcode(_ context.Context, outcode string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.outcodeToBSO[outcode]
	return ok, nil
}

func (l *InMemoryLookups) BSOCodeByOutcode(_ context.Context, outcode string) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	bso, ok := l.outcodeToBSO[outcode]
	if !ok {
		return "", ErrLookupMiss
	}
	return bso, nil
}

func (l *InMemoryLookups) BSOCodeByProvider(_ context.Context, gpPracticeCode string) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	bso, ok := l.practiceToBSO[gpPracticeCode]
	if !ok {
		return "", ErrLookupMiss
	}
	return bso, nil
}
