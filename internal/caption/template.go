package caption

// Tag names the copy niche a listing is written for. It drives which tone
// directive is embedded in the prompt.
type Tag string

const (
	TagApartmentLuxury Tag = "APARTMENT_LUXURY"
	TagApartmentMid    Tag = "APARTMENT_MID"
	TagApartmentEntry  Tag = "APARTMENT_ENTRY"
	TagHouseLuxury     Tag = "HOUSE_LUXURY"
	TagHouseMid        Tag = "HOUSE_MID"
	TagHouseEntry      Tag = "HOUSE_ENTRY"
	TagNewDevelopment  Tag = "NEW_DEVELOPMENT"
	TagLand            Tag = "LAND"
	TagOpportunity     Tag = "OPPORTUNITY"
	TagGeneric         Tag = "GENERIC"
)

// Tags lists every tag SelectTemplate can return.
func Tags() []Tag {
	return []Tag{
		TagApartmentLuxury, TagApartmentMid, TagApartmentEntry,
		TagHouseLuxury, TagHouseMid, TagHouseEntry,
		TagNewDevelopment, TagLand, TagOpportunity, TagGeneric,
	}
}

// Canonical tokens after NormalizeToken.
const (
	typeApartment   = "apartamento"
	typeHouse       = "casa"
	typeLaunch      = "lancamento"
	typeLand        = "terreno"
	typeOpportunity = "oportunidade"

	standardLuxury = "luxo"
	standardMid    = "medio"
)

// SelectTemplate resolves a property type and standard to a Tag. Every input
// resolves to exactly one tag; unrecognized types are GENERIC and
// unrecognized standards take the entry tier.
func SelectTemplate(propertyType, propertyStandard string) Tag {
	pt := NormalizeToken(propertyType)
	ps := NormalizeToken(propertyStandard)

	switch pt {
	case typeApartment:
		switch ps {
		case standardLuxury:
			return TagApartmentLuxury
		case standardMid:
			return TagApartmentMid
		default:
			return TagApartmentEntry
		}
	case typeHouse:
		switch ps {
		case standardLuxury:
			return TagHouseLuxury
		case standardMid:
			return TagHouseMid
		default:
			return TagHouseEntry
		}
	case typeLaunch:
		return TagNewDevelopment
	case typeLand:
		return TagLand
	case typeOpportunity:
		return TagOpportunity
	default:
		return TagGeneric
	}
}
