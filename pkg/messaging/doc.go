// Package messaging sends outbound text messages through third-party WhatsApp
// gateways behind one uniform interface.
//
// Gateways disagree on transport (GET vs POST), where the credentials go and
// how success is signalled. Each Provider implementation absorbs those
// differences and returns a Result with Success, MessageID and a human-readable
// Error. Providers never return Go errors or panic: network failures, timeouts
// and unexpected payloads are all reported as a failed Result.
//
// The set of providers is closed. NewDefaultRegistry registers every built-in
// adapter, each guarded by its own circuit breaker:
//
//	reg := messaging.NewDefaultRegistry(messaging.WithTimeout(15 * time.Second))
//	p, err := reg.Get(cfg.Provider)
//	if err != nil {
//		return err // unknown provider is a configuration error
//	}
//	res := p.SendMessage(ctx, messaging.NormalizePhone(raw, "55"), body, cfg)
//
// The package also holds the two pure helpers the dispatch path needs:
// Render substitutes {variable} placeholders into template content and
// NormalizePhone turns user-entered phone numbers into international digits.
package messaging
