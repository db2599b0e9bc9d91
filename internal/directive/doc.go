// Package directive defines the canonical command model and the parser
// that extracts commands from language-model output.
//
// A directive is a fenced key/value segment embedded in otherwise natural
// language, e.g.:
//
//	Sure, blinking the LED now.
//	```action:control,device:led,state:BLINK,times=10,duration=10```
//
// Parse is total: any text that does not contain a well-formed control
// directive degrades to plain chat or a malformed marker, never an error.
// This keeps the caller's fallback trivial — echo the model's natural
// language response verbatim.
//
// The package also owns blink parameter resolution: the single authority
// that turns "some optional timing inputs" into three mandatory outputs
// under a fixed priority policy with bounds enforcement.
package directive
