/*
Package authsdk is the client SDK and wire vocabulary of the jwtauth service.

# Overview

The service issues signed bearer tokens in exchange for a username and
password, and validates them on later requests. SDKClient wraps the HTTP
surface:

	client := authsdk.NewSDKClient("https://auth.example.com")

	// Exchange credentials for a token
	tok, err := client.Token(ctx, "admin", "correct horse")

	// Ask the service whether a token is still good
	res, err := client.Validate(ctx, tok.Token)

	// Call a protected endpoint
	me, err := client.Me(ctx, tok.Token)

# Error Handling

Every failure the service reports is an *AuthError. The set of codes is
closed; compare with errors.Is against the predefined values:

	_, err := client.Validate(ctx, token)
	switch {
	case errors.Is(err, authsdk.ErrInvalidToken):
		// expired, tampered or signed with another key
	case errors.Is(err, authsdk.ErrUserNotFound):
		// the user was deleted after the token was issued
	}

The same type is used by the server to write responses, so the JSON body is
always

	{"code":"jwt_auth_<code>","message":"...","data":{"status":403}}

with jwt_auth_failed carrying data.reason, the identity provider's own code
(for example incorrect_password).
*/
package authsdk
