// Package activation forwards fixed page activations to the gate and folds
// every outcome into a domain.ActivationResult.
//
// Routes holds the dispatch table of inbound paths to literal activations.
// The Forwarder makes one attempt per call; there are no retries.
package activation
