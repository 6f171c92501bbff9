package signature_test

import (
	"testing"

	"momopay/internal/signature"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize_SortsKeysAndStripsWhitespace(t *testing.T) {
	canonical, err := signature.Canonicalize([]byte(`{ "b": 1,  "a": 2 }`))
	assert.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1}`, string(canonical))
}

func TestCanonicalize_OrderIndependent(t *testing.T) {
	first, err := signature.Canonicalize([]byte(`{"b":1,"a":2}`))
	assert.NoError(t, err)
	second, err := signature.Canonicalize([]byte(`{"a":2,"b":1}`))
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCanonicalize_NestedObjectsAndArrays(t *testing.T) {
	canonical, err := signature.Canonicalize([]byte(`{
		"z": {"y": "x", "a": [3, {"q": null, "p": true}]},
		"amount": "100.00"
	}`))
	assert.NoError(t, err)
	assert.Equal(t, `{"amount":"100.00","z":{"a":[3,{"p":true,"q":null}],"y":"x"}}`, string(canonical))
}

func TestCanonicalize_PreservesNumberLexemes(t *testing.T) {
	canonical, err := signature.Canonicalize([]byte(`{"amount":100.10}`))
	assert.NoError(t, err)
	assert.Equal(t, `{"amount":100.10}`, string(canonical))
}

func TestCanonicalize_DoesNotHTMLEscape(t *testing.T) {
	// The provider renders & < > verbatim; an HTML-safe & rendering
	// would change the signing input and break verification.
	canonical, err := signature.Canonicalize([]byte(`{"a":"&","b":"<tag>"}`))
	assert.NoError(t, err)
	assert.Equal(t, `{"a":"&","b":"<tag>"}`, string(canonical))
}

func TestCanonicalize_EscapesNonASCII(t *testing.T) {
	canonical, err := signature.Canonicalize([]byte(`{"name":"Amélie"}`))
	assert.NoError(t, err)
	assert.Equal(t, "{\"name\":\"Am\\u00e9lie\"}", string(canonical))

	// Characters beyond the basic multilingual plane come out as a
	// UTF-16 surrogate pair.
	canonical, err = signature.Canonicalize([]byte(`{"note":"ok 😀"}`))
	assert.NoError(t, err)
	assert.Equal(t, "{\"note\":\"ok \\ud83d\\ude00\"}", string(canonical))
}

func TestCanonicalize_EscapesControlAndQuoteCharacters(t *testing.T) {
	in := []byte("{\"a\":\"line\\nbreak \\\"q\\\" back\\\\slash \\u0001\"}")
	canonical, err := signature.Canonicalize(in)
	assert.NoError(t, err)
	assert.Equal(t, string(in), string(canonical))
}

func TestCanonicalize_MalformedPayload(t *testing.T) {
	_, err := signature.Canonicalize([]byte(`{"a":`))
	assert.ErrorIs(t, err, signature.ErrMalformedPayload)

	_, err = signature.Canonicalize([]byte(`{"a":1} trailing`))
	assert.ErrorIs(t, err, signature.ErrMalformedPayload)
}

func TestVerify_RoundTrip(t *testing.T) {
	secret := "super-secret-key-123"
	v := signature.NewVerifier(secret)

	body := []byte(`{"provider_reference":"MO-TXN-1","order_id":"ord-1","status":"success"}`)
	canonical, err := signature.Canonicalize(body)
	assert.NoError(t, err)

	sig := signature.Sign(canonical, []byte(secret))
	assert.NoError(t, v.Verify(body, sig))

	// The same logical payload in a different rendering verifies too,
	// because the canonical form is identical.
	reordered := []byte(`{ "status": "success", "order_id": "ord-1", "provider_reference": "MO-TXN-1" }`)
	assert.NoError(t, v.Verify(reordered, sig))
}

func TestVerify_RejectsTamperedSignature(t *testing.T) {
	secret := "super-secret-key-123"
	v := signature.NewVerifier(secret)

	body := []byte(`{"order_id":"ord-1","status":"success"}`)
	canonical, _ := signature.Canonicalize(body)
	sig := signature.Sign(canonical, []byte(secret))

	// Flip the last hex digit.
	last := sig[len(sig)-1]
	flipped := byte('0')
	if last == '0' {
		flipped = '1'
	}
	tampered := sig[:len(sig)-1] + string(flipped)

	assert.ErrorIs(t, v.Verify(body, tampered), signature.ErrInvalidSignature)
}

func TestVerify_RejectsSignatureOverNonCanonicalRendering(t *testing.T) {
	secret := "super-secret-key-123"
	v := signature.NewVerifier(secret)

	// Signature computed over the raw, non-canonical bytes instead of the
	// canonical form. Logical content matches but verification must fail.
	raw := []byte(`{ "status": "success", "order_id": "ord-1" }`)
	sigOverRaw := signature.Sign(raw, []byte(secret))

	assert.ErrorIs(t, v.Verify(raw, sigOverRaw), signature.ErrInvalidSignature)
}

func TestVerify_MissingSignature(t *testing.T) {
	v := signature.NewVerifier("secret")
	assert.ErrorIs(t, v.Verify([]byte(`{"a":1}`), ""), signature.ErrInvalidSignature)
}

func TestVerify_WrongSecret(t *testing.T) {
	body := []byte(`{"a":1}`)
	canonical, _ := signature.Canonicalize(body)
	sig := signature.Sign(canonical, []byte("secret-one"))

	v := signature.NewVerifier("secret-two")
	assert.ErrorIs(t, v.Verify(body, sig), signature.ErrInvalidSignature)
}
