package localstore

import "strings"

const (
	MainBucketTransfersKey = "main_bucket_transfers"
	DemoModeKey            = "demo_mode"
	DemoUserKey            = "demo_user"
	ThemeKey               = "theme"

	LegacyBucketsKey    = "buckets"
	LegacyMainBucketKey = "mainBucket"

	maxKeyLength = 200
)

const (
	bucketsPrefix     = "buckets_"
	mainBucketPrefix  = "mainBucket_"
	activitiesPrefix  = "activities_"
	autoDepositPrefix = "auto_deposits_"
	settingsPrefix    = "settings_"
	profilePrefix     = "profile_"
	onboardingPrefix  = "onboarding_completed_"
)

// userScopedPrefixes are the keys whose suffix is a user id.
var userScopedPrefixes = []string{
	onboardingPrefix,
	mainBucketPrefix,
	bucketsPrefix,
	settingsPrefix,
	profilePrefix,
}

func BucketsKey(userID string) string        { return bucketsPrefix + userID }
func MainBucketKey(userID string) string     { return mainBucketPrefix + userID }
func ActivitiesKey(bucketID string) string   { return activitiesPrefix + bucketID }
func AutoDepositsKey(bucketID string) string { return autoDepositPrefix + bucketID }
func SettingsKey(userID string) string       { return settingsPrefix + userID }
func ProfileKey(userID string) string        { return profilePrefix + userID }
func OnboardingKey(userID string) string     { return onboardingPrefix + userID }

// OwnerOf returns the user a namespaced key belongs to.
func OwnerOf(key string) (string, bool) {
	for _, prefix := range userScopedPrefixes {
		if strings.HasPrefix(key, prefix) {
			owner := strings.TrimPrefix(key, prefix)
			return owner, owner != ""
		}
	}
	return "", false
}

func IsLegacyKey(key string) bool {
	return key == LegacyBucketsKey || key == LegacyMainBucketKey
}

// IsServerKey reports whether the key is part of the projection the server
// maintains for userID. Clients may read such keys but never write them.
func IsServerKey(key, userID string) bool {
	switch {
	case key == BucketsKey(userID), key == MainBucketKey(userID), key == MainBucketTransfersKey:
		return true
	case strings.HasPrefix(key, activitiesPrefix), strings.HasPrefix(key, autoDepositPrefix):
		return true
	default:
		return false
	}
}

// ValidKey rejects empty, oversized and whitespace-carrying keys.
func ValidKey(key string) bool {
	if key == "" || len(key) > maxKeyLength {
		return false
	}
	return !strings.ContainsAny(key, " \t\r\n/")
}
