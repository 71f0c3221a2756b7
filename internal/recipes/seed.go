package recipes

import "github.com/shopspring/decimal"

func inr(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func seedRecipes() []Recipe {
	return []Recipe{
		{
			ID:          "recipe1",
			Title:       "Masala Dosa",
			Description: "Crispy rice and lentil crepe folded around a spiced potato filling.",
			Category:    "breakfast",
			Ingredients: []Ingredient{
				{Name: "Dosa batter", Quantity: "500 g", Price: inr(60)},
				{Name: "Potatoes", Quantity: "4 medium", Price: inr(30)},
				{Name: "Onion", Quantity: "2", Price: inr(15)},
				{Name: "Mustard seeds", Quantity: "1 tsp", Price: inr(5)},
				{Name: "Curry leaves", Quantity: "1 sprig", Price: inr(5)},
			},
			Instructions: []string{
				"Boil and mash the potatoes.",
				"Temper mustard seeds and curry leaves, add onion and the potatoes.",
				"Spread batter thin on a hot tawa and cook until crisp.",
				"Fill with the potato masala and fold.",
			},
			CookTime:         40,
			Servings:         4,
			Difficulty:       Medium,
			ImageURL:         "https://images.pexels.com/photos/5560763/pexels-photo-5560763.jpeg",
			YoutubeID:        "CCab5oh0ZOI",
			IngredientsPrice: inr(115),
			ReadyMadePrice:   inr(120),
			IsVegetarian:     true,
			IsPopular:        true,
		},
		{
			ID:          "recipe2",
			Title:       "Idli with Sambar",
			Description: "Steamed rice cakes served with a tangy lentil and vegetable stew.",
			Category:    "breakfast",
			Ingredients: []Ingredient{
				{Name: "Idli batter", Quantity: "500 g", Price: inr(55)},
				{Name: "Toor dal", Quantity: "1 cup", Price: inr(40)},
				{Name: "Tamarind", Quantity: "small ball", Price: inr(10)},
				{Name: "Drumstick", Quantity: "2", Price: inr(20)},
				{Name: "Sambar powder", Quantity: "2 tbsp", Price: inr(15)},
			},
			Instructions: []string{
				"Steam the batter in greased idli plates for 12 minutes.",
				"Pressure cook the dal until soft.",
				"Simmer vegetables in tamarind water with sambar powder, then add the dal.",
			},
			CookTime:         35,
			Servings:         4,
			Difficulty:       Easy,
			ImageURL:         "https://images.pexels.com/photos/4331489/pexels-photo-4331489.jpeg",
			YoutubeID:        "c5fSaG2q0_U",
			IngredientsPrice: inr(140),
			ReadyMadePrice:   inr(90),
			IsVegetarian:     true,
			IsPopular:        true,
		},
		{
			ID:          "recipe3",
			Title:       "Chettinad Chicken Curry",
			Description: "Fiery Karaikudi style chicken curry with freshly roasted spices.",
			Category:    "lunch",
			Ingredients: []Ingredient{
				{Name: "Chicken", Quantity: "750 g", Price: inr(220)},
				{Name: "Onion", Quantity: "3", Price: inr(20)},
				{Name: "Tomato", Quantity: "2", Price: inr(15)},
				{Name: "Dry red chillies", Quantity: "8", Price: inr(10)},
				{Name: "Fennel seeds", Quantity: "1 tbsp", Price: inr(10)},
				{Name: "Coconut", Quantity: "1/2 cup grated", Price: inr(25)},
			},
			Instructions: []string{
				"Dry roast chillies, fennel, pepper and coconut and grind to a paste.",
				"Saute onion and tomato, add chicken and sear.",
				"Add the masala paste and simmer until the chicken is cooked.",
			},
			CookTime:         60,
			Servings:         4,
			Difficulty:       Hard,
			ImageURL:         "https://images.pexels.com/photos/7625056/pexels-photo-7625056.jpeg",
			YoutubeID:        "jF4w1kktZeg",
			IngredientsPrice: inr(300),
			ReadyMadePrice:   inr(280),
			IsVegetarian:     false,
			IsPopular:        true,
		},
		{
			ID:          "recipe4",
			Title:       "Lemon Rice",
			Description: "Tangy tempered rice with peanuts and curry leaves.",
			Category:    "lunch",
			Ingredients: []Ingredient{
				{Name: "Cooked rice", Quantity: "3 cups", Price: inr(30)},
				{Name: "Lemon", Quantity: "2", Price: inr(10)},
				{Name: "Peanuts", Quantity: "1/4 cup", Price: inr(15)},
				{Name: "Curry leaves", Quantity: "1 sprig", Price: inr(5)},
				{Name: "Green chilli", Quantity: "2", Price: inr(5)},
			},
			Instructions: []string{
				"Fry peanuts, chillies and curry leaves in oil with mustard seeds.",
				"Add turmeric and the rice.",
				"Turn off the heat and stir in lemon juice.",
			},
			CookTime:         20,
			Servings:         3,
			Difficulty:       Easy,
			ImageURL:         "https://images.pexels.com/photos/6363501/pexels-photo-6363501.jpeg",
			YoutubeID:        "LSKe0Xp5Ngg",
			IngredientsPrice: inr(65),
			ReadyMadePrice:   inr(80),
			IsVegetarian:     true,
		},
		{
			ID:          "recipe5",
			Title:       "Kerala Fish Molee",
			Description: "Mild fish stew simmered in coconut milk.",
			Category:    "dinner",
			Ingredients: []Ingredient{
				{Name: "Seer fish", Quantity: "500 g", Price: inr(350)},
				{Name: "Coconut milk", Quantity: "2 cups", Price: inr(60)},
				{Name: "Green chilli", Quantity: "3", Price: inr(5)},
				{Name: "Ginger", Quantity: "1 inch", Price: inr(5)},
				{Name: "Curry leaves", Quantity: "2 sprigs", Price: inr(5)},
			},
			Instructions: []string{
				"Marinate the fish with turmeric and salt.",
				"Saute ginger, chilli and onion in coconut oil.",
				"Add thin coconut milk and the fish, simmer, then finish with thick milk.",
			},
			CookTime:         45,
			Servings:         4,
			Difficulty:       Medium,
			ImageURL:         "https://images.pexels.com/photos/3296280/pexels-photo-3296280.jpeg",
			YoutubeID:        "Gx1CTOVQ8SU",
			IngredientsPrice: inr(425),
			ReadyMadePrice:   inr(380),
			IsVegetarian:     false,
		},
		{
			ID:          "recipe6",
			Title:       "Medu Vada",
			Description: "Crisp fried urad dal doughnuts.",
			Category:    "snack",
			Ingredients: []Ingredient{
				{Name: "Urad dal", Quantity: "1 cup", Price: inr(45)},
				{Name: "Green chilli", Quantity: "2", Price: inr(5)},
				{Name: "Black pepper", Quantity: "1 tsp", Price: inr(5)},
				{Name: "Oil", Quantity: "for frying", Price: inr(40)},
			},
			Instructions: []string{
				"Soak the dal for four hours and grind to a thick batter.",
				"Mix in chilli and pepper.",
				"Shape into rings and deep fry until golden.",
			},
			CookTime:         30,
			Servings:         4,
			Difficulty:       Medium,
			ImageURL:         "https://images.pexels.com/photos/14477873/pexels-photo-14477873.jpeg",
			YoutubeID:        "wZ3WQB2nMBU",
			IngredientsPrice: inr(95),
			ReadyMadePrice:   inr(70),
			IsVegetarian:     true,
		},
		{
			ID:          "recipe7",
			Title:       "Hyderabadi Mutton Biryani",
			Description: "Slow cooked dum biryani layered with marinated mutton and saffron rice.",
			Category:    "dinner",
			Ingredients: []Ingredient{
				{Name: "Mutton", Quantity: "1 kg", Price: inr(700)},
				{Name: "Basmati rice", Quantity: "3 cups", Price: inr(120)},
				{Name: "Curd", Quantity: "1 cup", Price: inr(30)},
				{Name: "Fried onion", Quantity: "1 cup", Price: inr(40)},
				{Name: "Saffron", Quantity: "a pinch", Price: inr(50)},
			},
			Instructions: []string{
				"Marinate the mutton overnight in curd and spices.",
				"Par boil the rice with whole spices.",
				"Layer mutton and rice, seal and cook on dum for an hour.",
			},
			CookTime:         120,
			Servings:         6,
			Difficulty:       Hard,
			ImageURL:         "https://images.pexels.com/photos/7394819/pexels-photo-7394819.jpeg",
			YoutubeID:        "Nhu6TfkbXjs",
			IngredientsPrice: inr(940),
			ReadyMadePrice:   inr(650),
			IsVegetarian:     false,
			IsPopular:        true,
		},
		{
			ID:          "recipe8",
			Title:       "Rava Kesari",
			Description: "Semolina pudding with ghee, cashews and saffron.",
			Category:    "snack",
			Ingredients: []Ingredient{
				{Name: "Rava", Quantity: "1 cup", Price: inr(25)},
				{Name: "Sugar", Quantity: "1 cup", Price: inr(20)},
				{Name: "Ghee", Quantity: "1/2 cup", Price: inr(80)},
				{Name: "Cashews", Quantity: "10", Price: inr(30)},
			},
			Instructions: []string{
				"Roast cashews and rava in ghee.",
				"Add boiling water and cook until thick.",
				"Stir in sugar and saffron and cook until it leaves the pan.",
			},
			CookTime:         25,
			Servings:         4,
			Difficulty:       Easy,
			ImageURL:         "https://images.pexels.com/photos/15014918/pexels-photo-15014918.jpeg",
			YoutubeID:        "B8fEhM2y3vA",
			IngredientsPrice: inr(155),
			ReadyMadePrice:   inr(110),
			IsVegetarian:     true,
		},
	}
}
