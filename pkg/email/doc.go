// Package email provides a provider-agnostic transport for outbound
// email. The dispatch layer renders notification content and hands the
// result to an EmailSender; swapping providers never touches dispatch
// code.
//
// Two implementations ship with the package:
//   - PostmarkClient for production delivery with open and link tracking
//   - DevSender for local development, writing each email to disk
//
// Both validate parameters before sending and report failures through
// sentinel errors that work with errors.Is.
//
//	client, err := email.NewPostmarkClient(cfg)
//	if err != nil {
//	    return err
//	}
//	err = client.SendEmail(ctx, email.SendEmailParams{
//	    SendTo:   "user@example.com",
//	    Subject:  "Password reset",
//	    BodyHTML: body,
//	    Tag:      "security.password_reset",
//	})
package email
