package redis

const (
	// KeySettings is the hash holding api_url and api_key
	KeySettings = "ghostmark:settings"
	// KeyPermissions is the set of granted host patterns
	KeyPermissions = "ghostmark:permissions"
	// KeyRecentNotifications is the capped list of recent notifications, newest first
	KeyRecentNotifications = "ghostmark:notifications:recent"
	// ChannelNotifications is the pub/sub channel notifications are published on
	ChannelNotifications = "ghostmark:notifications"
)

const (
	fieldAPIURL = "api_url"
	fieldAPIKey = "api_key"
)

// NamespacedKey prefixes key with namespace so several ghostmark instances
// can share one Redis database.
func NamespacedKey(namespace, key string) string {
	if namespace == "" {
		return key
	}
	return namespace + ":" + key
}
