// Package repository define los contratos de persistencia del gatekeeper.
//
// Las implementaciones viven en internal/store/adapters (memory, postgres).
//
//	services (gatekeeper, cloudtoken)
//	        │
//	        ▼
//	domain/repository (interfaces + tipos)
//	        │
//	   ┌────┴─────┐
//	   ▼          ▼
//	memory     postgres
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Las cuentas soft-deleted son invisibles para las lecturas normales
//   - Los índices únicos abarcan también las filas soft-deleted
package repository
