/*
Package invitesdk is a Go client for the Magic On Tap invitation service.

The service lets dashboard staff invite people by email. Every call needs a
Supabase access token for a user whose app_metadata role is admin or
superadmin:

	client := invitesdk.NewClient("https://invites.example.com", accessToken)

	res, err := client.Issue(ctx, invitesdk.IssueRequest{
		Email: "new.owner@example.com",
		Role:  "customer",
	})
	if invitesdk.IsDuplicatePending(err) {
		// res is nil, the existing invitation is on the error
	}

# Errors

Every non-2xx response becomes an *APIError carrying the HTTP status, the
machine readable code and the message. A 409 for a duplicate invite also
carries the pending invitation that holds the email.

The request and response types double as the server's wire format and are
what the OpenAPI document is generated from.
*/
package invitesdk
