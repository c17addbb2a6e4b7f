// Package mongo provides a MongoDB store backend built on the grove ORM
// and the official v2 mongo driver. The step log's append-only guarantee
// is enforced with a unique (instance_id, step_index) index; event
// subscription is poll-based against an indexed (instance, name, acked)
// filter.
package mongo
