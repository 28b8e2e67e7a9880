// Package model defines the minimal language model abstraction used for plan
// generation. Providers adapt their SDKs behind the Model interface; callers
// stay provider agnostic and receive plain text completions plus token usage.
package model
