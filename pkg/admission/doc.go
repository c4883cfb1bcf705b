// Package admission implements per-tenant admission control for evaluation
// requests.
//
// Each tenant holds a token count that is decremented with an atomic
// decrement-if-positive before any evaluation work begins, so concurrent
// requests can never over-admit. Zero tokens fails the request immediately;
// nothing queues or retries. Tokens are replenished to capacity on a cron
// schedule by the Replenisher rather than continuously, matching a
// fixed-window admission budget.
package admission
