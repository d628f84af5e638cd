package domain

// Purpose names the side effect a verified two-factor code authorizes.
type Purpose string

const (
	PurposeLogin          Purpose = "login"
	PurposePasswordChange Purpose = "password-change"
)

// Challenge is the one-time code issued for a user, stored ephemerally
// in the cache under a per-user key. At most one challenge is live per
// user; re-issuing overwrites the previous one.
type Challenge struct {
	Code    string  `json:"code"`
	Purpose Purpose `json:"purpose"`
}
