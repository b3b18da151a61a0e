// Package protocol implements the session that multiplexes control traffic
// with the agent over one ordered stream.
//
// A Session is the only writer to its Transport. It correlates outgoing
// control requests with their responses through a pending table, hands
// inbound control requests to a Dispatcher while tracking them in an
// in-flight table, and forwards data messages to subscribers in arrival
// order.
//
// Example usage:
//
//	sess := protocol.NewSession(log, transport, dispatcher, protocol.Config{})
//	if err := sess.Start(); err != nil {
//		return err
//	}
//	defer sess.Close(ctx)
//
//	if _, err := sess.Initialize(ctx, payload, 60*time.Second); err != nil {
//		return err
//	}
//
//	resp, err := sess.SendRequest(ctx, "set_model", map[string]any{"model": "opus"}, 30*time.Second)
package protocol
