package app

import (
	"strings"

	"smartstay/internal/domain"
)

/********** identity-provider payload helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// primaryEmail picks the address whose id matches primary_email_address_id,
// falling back to the first one listed.
func primaryEmail(m map[string]any) string {
	list, _ := lookupAny(m, "email_addresses").([]any)
	primary := lookupStr(m, "primary_email_address_id")
	first := ""
	for _, item := range list {
		e, ok := item.(map[string]any)
		if !ok {
			continue
		}
		addr := lookupStr(e, "email_address")
		if first == "" {
			first = addr
		}
		if primary != "" && lookupStr(e, "id") == primary {
			return addr
		}
	}
	return first
}

// MapProfile converts an identity-provider user object into a Profile.
func MapProfile(m map[string]any) domain.Profile {
	name := strings.TrimSpace(lookupStr(m, "first_name") + " " + lookupStr(m, "last_name"))
	if name == "" {
		name = lookupStr(m, "username")
	}
	img := lookupStr(m, "image_url")
	if img == "" {
		img = lookupStr(m, "profile_image_url")
	}
	return domain.Profile{
		ID:       lookupStr(m, "id"),
		Email:    primaryEmail(m),
		Username: name,
		Image:    img,
	}
}
