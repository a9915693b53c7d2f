// Package term defines the values the application works with: the saved
// term record with its generated explanation and examples, the analysis
// payload it is built from, chat messages and the user's language settings.
package term
