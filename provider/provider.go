// Package provider implements the DeepL backends: the browser-extension
// JSON-RPC API and an automated browser session.
package provider

import "github.com/ZaguanLabs/godeepl"

// Provider is the interface for translation backends.
// This is an alias to the main package interface for convenience.
type Provider = godeepl.Provider

// Request is an alias to the main package type.
type Request = godeepl.Request

// Result is an alias to the main package type.
type Result = godeepl.Result
