package apiclient

import "net/http"

// BearerToken returns a request interceptor that attaches a bearer token to
// every outgoing request. The token is resolved per request so rotated
// credentials take effect without rebuilding the client.
func BearerToken(token func() string) RequestInterceptor {
	return func(req *http.Request) error {
		if t := token(); t != "" {
			req.Header.Set("Authorization", "Bearer "+t)
		}
		return nil
	}
}

// UserAgent returns a request interceptor that sets a fixed User-Agent header.
func UserAgent(ua string) RequestInterceptor {
	return func(req *http.Request) error {
		req.Header.Set("User-Agent", ua)
		return nil
	}
}
