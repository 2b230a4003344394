package didkey

import "encoding/json"

// CanonicalJSON renders payload in the service's canonical JSON form: the
// value is round-tripped through generic JSON so struct field order is
// erased, then re-encoded, which makes encoding/json emit object keys in
// sorted order. Sign and Verify both run payloads through this function, so
// signatures are stable across any Go representation of the same document.
//
// The canonical form is deployment-wide, not cross-runtime: a consumer in
// another language must reproduce sorted-key, no-whitespace JSON with the
// same number formatting to verify these signatures.
func CanonicalJSON(payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}
