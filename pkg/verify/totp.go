// Package verify checks entered codes against a time-based one-time password
// secret (RFC 6238).
package verify

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Verifier checks a complete code.
type Verifier interface {
	Verify(code string, at time.Time) bool
}

// TOTP verifies codes for one secret.
type TOTP struct {
	secret string
	issuer string
	period uint
	skew   uint
	digits otp.Digits
}

// DigitsForLength maps a field length onto TOTP digits. Anything other than
// 8 falls back to 6.
func DigitsForLength(length int) otp.Digits {
	if length == 8 {
		return otp.DigitsEight
	}
	return otp.DigitsSix
}

// NewTOTP constructs a TOTP verifier.
//
// If period is 0, it uses the common 30-second period. If skew is 0, one
// period on either side is accepted.
func NewTOTP(secret, issuer string, period, skew uint, digits otp.Digits) *TOTP {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}
	if period == 0 {
		period = 30
	}
	if skew == 0 {
		skew = 1
	}
	return &TOTP{
		secret: secret,
		issuer: issuer,
		period: period,
		skew:   skew,
		digits: digits,
	}
}

// Issuer returns the issuer the secret was provisioned for.
func (o *TOTP) Issuer() string {
	return o.issuer
}

// Digits returns the expected code length.
func (o *TOTP) Digits() int {
	return o.digits.Length()
}

// Verify checks whether code is valid at the given time.
func (o *TOTP) Verify(code string, at time.Time) bool {
	ok, err := totp.ValidateCustom(code, o.secret, at, o.validateOpts())
	return ok && err == nil
}

// GenerateCode creates the code for the given time.
func (o *TOTP) GenerateCode(at time.Time) (string, error) {
	return totp.GenerateCodeCustom(o.secret, at, o.validateOpts())
}

func (o *TOTP) validateOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    o.period,
		Skew:      o.skew,
		Digits:    o.digits,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// GenerateSecret creates a new secret and provisioning URI for an account.
func GenerateSecret(issuer, accountName string, digits otp.Digits) (secret, uri string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountName,
		SecretSize:  20, // RFC 4226/6238 recommendation
		Digits:      digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}
