package audit

import "sync"

// issueLocks is a sync.Map of *sync.Mutex keyed by issue_id, giving each
// issue's audit chain its own serialization point without a global lock
// serializing unrelated issues against each other.
type issueLocks struct {
	mu sync.Map // string -> *sync.Mutex
}

func (l *issueLocks) lock(issueID string) (unlock func()) {
	v, _ := l.mu.LoadOrStore(issueID, &sync.Mutex{})
	m := v.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}
