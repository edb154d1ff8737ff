package redis

import "fmt"

// Key prefix for all blockmatch data
const keyPrefix = "blockmatch"

// levelKey returns the Redis key for a Level
func levelKey(name string) string {
	return fmt.Sprintf("%s:level:%s", keyPrefix, name)
}

// levelIndexKey returns the Redis key for the SET of stored level names
func levelIndexKey() string {
	return fmt.Sprintf("%s:idx:levels", keyPrefix)
}
