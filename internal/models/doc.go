// Package models lists and categorizes the models available to the
// configured AI provider. It helps users pick text, image and speech
// models for their API key.
package models
