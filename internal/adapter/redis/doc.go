// Package redis stores gate sessions in Redis.
//
// Each session is a hash at gate:session:{id} with a TTL; the set
// gate:sessions indexes the IDs so the admin listing does not need SCAN.
// Index members whose hash has expired are pruned lazily by List.
package redis
