// Package google loads the cached OAuth2 tokens used to talk to Google Calendar.
//
// The TokenProvider interface allows different token sources to be plugged in;
// FileTokenProvider reads per-account token files from the user cache directory.
package google
