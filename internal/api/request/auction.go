// Package request defines the JSON request bodies accepted by the API.
package request

// ReserveRequest places a hold on a listed coin during an active
// session.
type ReserveRequest struct {
	CoinID        string `json:"coinId"`
	PaymentMethod string `json:"paymentMethod"`
}

// SubmitProofRequest attaches payment evidence to a pending bid. Proof
// is an opaque reference or inline payload handed to the artifact
// store.
type SubmitProofRequest struct {
	Proof string `json:"proof"`
}
