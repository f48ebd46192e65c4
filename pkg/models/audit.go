package models

import "time"

// AuditEntry is one immutable, hash-chained record in an issue's audit
// trail. hash = SHA-256(canonical_json({...fields, previous_hash})).
type AuditEntry struct {
	AuditID      string         `json:"audit_id"`
	Timestamp    time.Time      `json:"timestamp"`
	IssueID      string         `json:"issue_id"`
	EventType    string         `json:"event_type"`
	Actor        string         `json:"actor"`
	Inputs       map[string]any `json:"inputs,omitempty"`
	Outputs      map[string]any `json:"outputs,omitempty"`
	Reasoning    string         `json:"reasoning,omitempty"`
	Hash         string         `json:"hash"`
	PreviousHash string         `json:"previous_hash"`
}

// HashableAuditFields is the field set included in an entry's hash.
// audit_id is deliberately excluded: it identifies the row, not the event,
// and including it would make the hash depend on storage-assigned identity
// rather than the event itself. Fields are marshaled via a map so
// encoding/json's alphabetical key ordering gives the same canonical byte
// stream regardless of struct declaration order.
type HashableAuditFields struct {
	Timestamp    string         `json:"timestamp"`
	IssueID      string         `json:"issue_id"`
	EventType    string         `json:"event_type"`
	Actor        string         `json:"actor"`
	Inputs       map[string]any `json:"inputs,omitempty"`
	Outputs      map[string]any `json:"outputs,omitempty"`
	Reasoning    string         `json:"reasoning,omitempty"`
	PreviousHash string         `json:"previous_hash"`
}

// AsMap converts to a map so json.Marshal sorts keys alphabetically,
// matching Python's json.dumps(sort_keys=True) byte-for-byte key ordering.
func (f HashableAuditFields) AsMap() map[string]any {
	m := map[string]any{
		"timestamp":     f.Timestamp,
		"issue_id":      f.IssueID,
		"event_type":    f.EventType,
		"actor":         f.Actor,
		"previous_hash": f.PreviousHash,
	}
	if f.Inputs != nil {
		m["inputs"] = f.Inputs
	}
	if f.Outputs != nil {
		m["outputs"] = f.Outputs
	}
	if f.Reasoning != "" {
		m["reasoning"] = f.Reasoning
	}
	return m
}
