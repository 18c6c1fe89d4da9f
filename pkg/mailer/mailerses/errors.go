package mailerses

import "github.com/Abraxas-365/caremail/pkg/errx"

var sesErrors = errx.NewRegistry("MAILER_SES")

var (
	ErrSenderNotVerified = sesErrors.Register("SENDER_NOT_VERIFIED", errx.TypeExternal, 502, "Sender address is not verified with SES")
	ErrDomainNotVerified = sesErrors.Register("DOMAIN_NOT_VERIFIED", errx.TypeExternal, 502, "Sending domain is not verified with SES")
	ErrSendingPaused     = sesErrors.Register("SENDING_PAUSED", errx.TypeExternal, 502, "Account sending is disabled or sandbox-restricted")
	ErrBadCredentials    = sesErrors.Register("BAD_CREDENTIALS", errx.TypeExternal, 502, "SES rejected the configured credentials")
	ErrMessageRejected   = sesErrors.Register("MESSAGE_REJECTED", errx.TypeExternal, 502, "SES rejected the message")
	ErrNetwork           = sesErrors.Register("NETWORK", errx.TypeExternal, 502, "SES is unreachable")
)
