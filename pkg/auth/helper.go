package auth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// EncodeBasic returns the token for AuthBasic: base64 of "username:password".
func EncodeBasic(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}

// DecodeBasic splits a Basic token (with or without the "Basic " prefix)
// into username and password.
func DecodeBasic(token string) (username, password string, err error) {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(token, "Basic "))
	if err != nil {
		return "", "", fmt.Errorf("failed to decode Basic auth: %w", err)
	}

	username, password, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return "", "", fmt.Errorf("invalid Basic auth format (expected username:password)")
	}
	return username, password, nil
}

// ParseJWT decodes the header and claims of a JWT and describes them.
// The signature is not verified.
func ParseJWT(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("token is required")
	}
	token = strings.TrimPrefix(token, "Bearer ")

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("invalid JWT format (expected 3 parts, got %d)", len(parts))
	}

	var sb strings.Builder
	sb.WriteString("JWT Token Analysis:\n\n")

	headerJSON, err := base64DecodeJWTPart(parts[0])
	if err != nil {
		fmt.Fprintf(&sb, "Header: (decode error: %v)\n", err)
	} else {
		sb.WriteString("Header:\n")
		sb.WriteString(formatJSON(headerJSON))
		sb.WriteString("\n\n")
	}

	payloadJSON, err := base64DecodeJWTPart(parts[1])
	if err != nil {
		fmt.Fprintf(&sb, "Payload: (decode error: %v)\n", err)
	} else {
		sb.WriteString("Payload (Claims):\n")
		sb.WriteString(formatJSON(payloadJSON))
		sb.WriteString("\n\n")

		var claims map[string]any
		if err := json.Unmarshal([]byte(payloadJSON), &claims); err == nil {
			if exp, ok := claims["exp"].(float64); ok {
				fmt.Fprintf(&sb, "Expires: %.0f (Unix timestamp)\n", exp)
			}
			if iat, ok := claims["iat"].(float64); ok {
				fmt.Fprintf(&sb, "Issued At: %.0f (Unix timestamp)\n", iat)
			}
			if sub, ok := claims["sub"].(string); ok {
				fmt.Fprintf(&sb, "Subject: %s\n", sub)
			}
		}
	}

	sb.WriteString("\nSignature: " + parts[2] + " (not verified)\n")
	return sb.String(), nil
}

// base64DecodeJWTPart decodes a JWT part with URL-safe base64, padded or not.
func base64DecodeJWTPart(part string) (string, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(part)
	if err == nil {
		return string(decoded), nil
	}

	switch len(part) % 4 {
	case 2:
		part += "=="
	case 3:
		part += "="
	}

	decoded, err = base64.URLEncoding.DecodeString(part)
	if err != nil {
		return "", fmt.Errorf("failed to decode JWT part: %w", err)
	}
	return string(decoded), nil
}

// formatJSON pretty-prints a JSON string.
func formatJSON(jsonStr string) string {
	var obj any
	if err := json.Unmarshal([]byte(jsonStr), &obj); err != nil {
		return jsonStr
	}

	pretty, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return jsonStr
	}
	return string(pretty)
}
