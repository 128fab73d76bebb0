// Package broadcast is an in-memory, topic based pub/sub hub.
//
// The paste service publishes AI metadata updates under the paste ID and
// the metadata event stream subscribes to that topic:
//
//	hub := broadcast.NewHub[paste.MetadataEvent](4)
//
//	events, unsubscribe := hub.Subscribe(ctx, id)
//	defer unsubscribe()
//	for ev := range events {
//		// ...
//	}
//
//	hub.Publish(id, ev)
//
// Publishing never blocks: a subscriber with a full buffer drops the
// message. Subscriptions end when their context is done.
package broadcast
