package models

// AmenityNames are the display names of the amenity keys rooms reference.
var AmenityNames = map[string]string{
	"sea_view": "Sea View",
	"led_tv":   "Led TV",
	"minibar":  "Minibar",
	"safe":     "Safe Box",
	"ac":       "AC",
	"wifi":     "Free Wi-Fi",
}

func defaultAmenities() []string {
	return []string{"sea_view", "led_tv", "minibar", "safe", "ac", "wifi"}
}

// DefaultSiteConfig returns a fresh copy of the seed configuration.
func DefaultSiteConfig() SiteConfig {
	return SiteConfig{
		Hero: HeroSection{
			Tag: LocalizedText{
				LangEN: "Experience Luxury in Narlıdere",
				LangTR: "Narlıdere'de Lüksü Deneyimleyin",
				LangDE: "Erleben Sie Luxus in Narlıdere",
			},
			Title: LocalizedText{
				LangEN: "Your Coastal Sanctuary Awaits",
				LangTR: "Sahil Sığınağınız Sizi Bekliyor",
				LangDE: "Ihr Refugium an der Küste",
			},
			Subtitle: LocalizedText{
				LangEN: "Where the Aegean sun meets modern comfort. A 17-room boutique experience designed for peace and elegance.",
				LangTR: "Ege güneşinin modern konforla buluştuğu nokta. Huzur ve zarafet için tasarlanmış 17 odalı bir butik deneyim.",
				LangDE: "Wo die ägäische Sonne auf modernen Komfort trifft. Ein Boutique-Erlebnis mit 17 Zimmern, entworfen für Ruhe und Eleganz.",
			},
			Image: "/viona-hero.jpg",
		},
		About: AboutSection{
			Title: LocalizedText{
				LangEN: "Quiet Luxury, Aegean Style",
				LangTR: "Sessiz Lüks, Ege Tarzı",
				LangDE: "Ruhiger Luxus, ägäischer Stil",
			},
			Subtitle: LocalizedText{
				LangEN: "Reception & Lobby",
				LangTR: "Resepsiyon ve Lobi",
				LangDE: "Rezeption & Lobby",
			},
			Philosophy: LocalizedText{
				LangEN: "Our lobby captures the freshness of the Aegean, and our reception radiates professional warmth. Viona Hotel is more than a stay; it is an architecture of serenity.",
				LangTR: "Lobimizde Ege'nin ferahlığını, resepsiyonumuzda profesyonelliğin sıcaklığını hissedeceksiniz. Viona Hotel, bir konaklamadan fazlası, bir sükunet mimarisidir.",
				LangDE: "Unsere Lobby fängt die Frische der Ägäis ein, und unsere Rezeption strahlt professionelle Wärme aus. Das Viona Hotel ist mehr als nur ein Aufenthalt; es ist eine Architektur der Gelassenheit.",
			},
			Image1: "/about-lobby-1.jpg",
			Image2: "/about-view-1.jpg",
		},
		Rooms: []Room{
			{
				ID:       "cat_suite",
				Name:     LocalizedText{LangEN: "Executive Sea Suite", LangTR: "Executive Deniz Süit", LangDE: "Executive Meeressuite"},
				Category: CategorySuite,
				Price:    450,
				Description: LocalizedText{
					LangEN: "Experience the ultimate Aegean escape with panoramic sea views from your bed. Modern luxury meets coastal peace.",
					LangTR: "Yatağınızdan panoramik deniz manzarasının keyfini çıkarın. Modern lüksün kıyı huzuruyla buluştuğu nokta.",
					LangDE: "Erleben Sie die ultimative ägäische Flucht mit Panoramablick aufs Meer direkt von Ihrem Bett aus.",
				},
				Image:     "/room-suite-1.jpg",
				Gallery:   []string{"/room-suite-2.png", "/viona-hero.jpg"},
				Amenities: defaultAmenities(),
			},
			{
				ID:       "cat_double",
				Name:     LocalizedText{LangEN: "Deluxe Garden Room", LangTR: "Deluxe Bahçe Odası", LangDE: "Deluxe Gartenzimmer"},
				Category: CategoryDouble,
				Price:    280,
				Description: LocalizedText{
					LangEN: "Spacious and bright, featuring a large balcony and sophisticated wooden details for a warm atmosphere.",
					LangTR: "Geniş ve aydınlık, büyük bir balkon ve sıcak bir atmosfer için sofistike ahşap detaylarla donatılmış.",
					LangDE: "Geräumig und hell, mit einem großen Balkon und anspruchsvollen Holzdetails für eine warme Atmosphäre.",
				},
				Image:     "/room-double-1.png",
				Gallery:   []string{"/about-lobby-1.jpg", "/about-view-1.jpg"},
				Amenities: defaultAmenities(),
			},
			{
				ID:       "cat_twin",
				Name:     LocalizedText{LangEN: "Classic Twin Comfort", LangTR: "Klasik İkiz Konfor", LangDE: "Klassischer Twin-Komfort"},
				Category: CategoryTwin,
				Price:    240,
				Description: LocalizedText{
					LangEN: "Perfectly arranged twin beds with high-end linens and a functional desk area for productivity.",
					LangTR: "Yüksek kaliteli nevresimler ve verimlilik için fonksiyonel bir çalışma masası alanı ile mükemmel düzenlenmiş ikiz yataklar.",
					LangDE: "Perfekt arrangierte Einzelbetten mit hochwertiger Bettwäsche und einem funktionalen Schreibtischbereich.",
				},
				Image:     "/room-double-1.png",
				Gallery:   []string{"/about-view-1.jpg"},
				Amenities: defaultAmenities(),
			},
		},
	}
}
