// Package inbox backs the in-app notification channel. Delivered
// messages land in a per-user inbox store and are simultaneously pushed
// to live subscribers through a hub, so an open client sees new
// messages without polling.
//
// Delivery is store-first: a message is persisted before the hub
// publish, and a failed publish never fails the delivery. Clients that
// were offline catch up from the store.
//
//	ib := inbox.New(inbox.NewMemoryStore())
//	sub := ib.Subscribe(ctx, "user-1")
//	defer sub.Close()
//
//	_ = ib.Deliver(ctx, msg)
//	live := <-sub.Receive(ctx)
package inbox
