package twin

import "github.com/fjod/fitstore/internal/client"

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

// Seed loads a small demo catalog and two collaborators.
func Seed(s *MemoryStore) {
	premios := []client.Premio{
		{ID: 1, Nombre: "Nike Air Max", Descripcion: strPtr("Zapatillas deportivas"), CostoFitcoins: 45, Stock: 5, IsActive: boolPtr(true), Categoria: strPtr("Calzado"), Talla: strPtr("42"), Marca: strPtr("Nike")},
		{ID: 2, Nombre: "Gorra Fitcoin", Descripcion: strPtr("Gorra bordada"), CostoFitcoins: 10, Stock: 20, IsActive: boolPtr(true), Categoria: strPtr("Ropa"), Talla: strPtr("M")},
		{ID: 3, Nombre: "Botella térmica", CostoFitcoins: 20, Stock: 12, IsActive: boolPtr(true)},
		{ID: 4, Nombre: "Audífonos inalámbricos", Descripcion: strPtr("Bluetooth 5.0"), CostoFitcoins: 120, Stock: 2, IsActive: boolPtr(true), Categoria: strPtr("Tecnología"), Marca: strPtr("Sony")},
		{ID: 5, Nombre: "Mochila edición 2023", CostoFitcoins: 60, Stock: 0, IsActive: boolPtr(false), Categoria: strPtr("Accesorios")},
	}
	for _, p := range premios {
		s.AddPremio(p)
	}

	s.AddAccount("ana@example.com", "secret", "Ana Pérez", 250)
	s.AddAccount("luis@example.com", "secret", "Luis Gómez", 30)
}
