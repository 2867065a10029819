package kafka

import "fmt"

// TopicPrefix is the standard prefix for all GameVault Kafka topics.
const TopicPrefix = "gamevault"

// Topic builds a topic name like "gamevault.review.created".
func Topic(domain, action string) string {
	return fmt.Sprintf("%s.%s.%s", TopicPrefix, domain, action)
}
