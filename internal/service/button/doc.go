// Package button implements the classroom panic button.
//
// A press submits one alert to the panel server and keeps retrying until the
// server accepts it. Throttled attempts wait for the delay the server asks
// for; requests the server rejects as invalid are not retried.
package button
