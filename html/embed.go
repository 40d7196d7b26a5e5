// Package html holds the browser chat page served at "/".
package html

import _ "embed"

// Index is the chat page
//
//go:embed index.html
var Index []byte
