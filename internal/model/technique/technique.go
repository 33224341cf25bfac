package technique

// Technique is a guided exercise referenced by id from responses.
type Technique struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Steps        []string `json:"steps"`
	DurationHint string   `json:"durationHint"`
}

func (t Technique) clone() Technique {
	t.Steps = append([]string(nil), t.Steps...)
	return t
}

// Seed provides the built-in exercise catalog.
func Seed() []Technique {
	return []Technique{
		{
			ID:          "respiracion_4_7_8",
			Name:        "Respiración 4-7-8",
			Description: "Técnica de respiración profunda que activa el sistema nervioso parasimpático",
			Steps: []string{
				"Colocate en una posición cómoda",
				"Inhalá por la nariz durante 4 segundos",
				"Mantené la respiración durante 7 segundos",
				"Exhalá lentamente por la boca durante 8 segundos",
				"Repetí este ciclo 4 veces",
			},
			DurationHint: "2-3 minutos",
		},
		{
			ID:          "tecnica_5_4_3_2_1",
			Name:        "Técnica 5-4-3-2-1",
			Description: "Ejercicio de grounding para conectar con el presente",
			Steps: []string{
				"Identificá 5 cosas que podés VER a tu alrededor",
				"Identificá 4 cosas que podés TOCAR",
				"Identificá 3 cosas que podés OÍR",
				"Identificá 2 cosas que podés OLER",
				"Identificá 1 cosa que podés SABOREAR",
			},
			DurationHint: "3-5 minutos",
		},
		{
			ID:          "respiracion_diafragmatica",
			Name:        "Respiración diafragmática",
			Description: "Respiración lenta desde el abdomen para bajar la activación física",
			Steps: []string{
				"Apoyá una mano en el pecho y otra en el abdomen",
				"Inhalá por la nariz llevando el aire al abdomen, no al pecho",
				"Exhalá despacio por la boca sintiendo cómo baja el abdomen",
				"Mantené un ritmo de unas 6 respiraciones por minuto",
			},
			DurationHint: "5 minutos",
		},
		{
			ID:          "activacion_conductual",
			Name:        "Activación conductual",
			Description: "Planificar pequeñas actividades agradables o con sentido",
			Steps: []string{
				"Elegí una actividad pequeña que antes disfrutabas",
				"Definí cuándo y dónde la vas a hacer hoy o mañana",
				"Hacela aunque no tengas ganas, aunque sea unos minutos",
				"Anotá cómo te sentiste antes y después",
			},
			DurationHint: "10-30 minutos",
		},
		{
			ID:          "reestructuracion_cognitiva",
			Name:        "Reestructuración cognitiva",
			Description: "Identificar y cuestionar pensamientos automáticos negativos",
			Steps: []string{
				"Escribí el pensamiento que te hace sentir mal",
				"Buscá evidencia a favor y en contra de ese pensamiento",
				"Pensá qué le dirías a un amigo en tu lugar",
				"Formulá un pensamiento alternativo más equilibrado",
			},
			DurationHint: "10-15 minutos",
		},
		{
			ID:          "diario_gratitud",
			Name:        "Diario de gratitud",
			Description: "Registrar cada día momentos por los que te sentís agradecido/a",
			Steps: []string{
				"Al final del día, escribí tres cosas por las que estás agradecido/a",
				"Sumá un detalle de por qué cada una fue importante",
				"Releé tus notas cuando el ánimo esté bajo",
			},
			DurationHint: "5 minutos",
		},
		{
			ID:          "relajacion_muscular_progresiva",
			Name:        "Relajación Muscular Progresiva",
			Description: "Técnica que alterna tensión y relajación de grupos musculares",
			Steps: []string{
				"Tensá los músculos de tus pies durante 5 segundos, luego relajá",
				"Subí a las piernas: tensá 5 segundos, relajá 10 segundos",
				"Continuá con glúteos, abdomen, pecho",
				"Seguí con brazos, manos, cuello y rostro",
				"Terminá con una respiración profunda y escaneo corporal",
			},
			DurationHint: "15-20 minutos",
		},
		{
			ID:          "mindfulness_body_scan",
			Name:        "Escaneo corporal",
			Description: "Recorrer el cuerpo con atención plena, sin juzgar las sensaciones",
			Steps: []string{
				"Acostate o sentate cómodo/a y cerrá los ojos",
				"Llevá la atención a los pies y notá las sensaciones",
				"Subí lentamente por piernas, tronco, brazos y cabeza",
				"Si la mente se distrae, volvé con amabilidad a la zona del cuerpo",
			},
			DurationHint: "10-15 minutos",
		},
		{
			ID:          "tecnica_lugar_seguro",
			Name:        "Lugar seguro",
			Description: "Visualizar un lugar donde te sentís tranquilo/a y a salvo",
			Steps: []string{
				"Cerrá los ojos y respirá profundo tres veces",
				"Imaginá un lugar real o inventado donde te sentís a salvo",
				"Recorré los colores, sonidos y olores de ese lugar",
				"Elegí una palabra que te recuerde ese lugar para volver cuando lo necesites",
			},
			DurationHint: "5-10 minutos",
		},
		{
			ID:          "grounding_trauma",
			Name:        "Grounding suave",
			Description: "Anclarte al presente cuando aparecen recuerdos intensos",
			Steps: []string{
				"Apoyá los pies en el suelo y sentí el contacto",
				"Decí en voz baja dónde estás, la fecha y la hora",
				"Sostené un objeto y describí su textura y temperatura",
				"Recordate que el recuerdo pertenece al pasado y ahora estás a salvo",
			},
			DurationHint: "3-5 minutos",
		},
		{
			ID:          "respiracion_segura",
			Name:        "Respiración segura",
			Description: "Respiración a ritmo propio, sin retener el aire, para momentos de alta activación",
			Steps: []string{
				"Respirá a tu propio ritmo, sin forzar",
				"Alargá un poco la exhalación en cada ciclo",
				"Si algo te incomoda, abrí los ojos y mirá a tu alrededor",
			},
			DurationHint: "2-5 minutos",
		},
		{
			ID:          "ventana_tolerancia",
			Name:        "Ventana de tolerancia",
			Description: "Reconocer cuándo estás fuera de tu zona de regulación y volver a ella",
			Steps: []string{
				"Notá si te sentís acelerado/a o apagado/a",
				"Si estás acelerado/a, bajá el ritmo con respiración lenta",
				"Si estás apagado/a, activate con movimiento suave",
				"Registrá qué te ayudó a volver a un punto medio",
			},
			DurationHint: "5 minutos",
		},
		{
			ID:          "anclaje_presente",
			Name:        "Anclaje al presente",
			Description: "Volver al aquí y ahora durante un pico de pánico",
			Steps: []string{
				"Nombrá en voz alta cinco objetos que ves",
				"Presioná los pies contra el piso",
				"Recordá que el pánico sube, llega a un pico y baja",
			},
			DurationHint: "2-3 minutos",
		},
		{
			ID:          "reestructuracion_panico",
			Name:        "Reinterpretar las sensaciones",
			Description: "Cambiar la lectura catastrófica de las sensaciones físicas del pánico",
			Steps: []string{
				"Identificá la sensación que más te asusta",
				"Escribí qué creés que significa",
				"Buscá una explicación alternativa no peligrosa",
				"Recordá ataques anteriores que terminaron sin daño",
			},
			DurationHint: "10 minutos",
		},
		{
			ID:          "plan_seguridad",
			Name:        "Plan de seguridad",
			Description: "Pasos concretos para mantenerte a salvo en una crisis",
			Steps: []string{
				"Anotá las señales que te indican que se acerca una crisis",
				"Listá actividades que te ayudan a distraerte",
				"Escribí nombres y teléfonos de personas de confianza",
				"Guardá el número de la línea de crisis: 0800 345 1435",
				"Alejá de tu entorno objetos con los que podrías hacerte daño",
			},
			DurationHint: "15 minutos",
		},
		{
			ID:          "conexion_presente_crisis",
			Name:        "Conexión con el presente",
			Description: "Un paso a la vez para atravesar los próximos minutos",
			Steps: []string{
				"Enfocate solo en los próximos cinco minutos",
				"Respirá lento y contá cada exhalación hasta diez",
				"Llamá o escribile a alguien de confianza",
			},
			DurationHint: "5 minutos",
		},
		{
			ID:          "caja_herramientas_supervivencia",
			Name:        "Caja de herramientas",
			Description: "Reunir recursos que te ayudaron a sobrellevar momentos difíciles",
			Steps: []string{
				"Elegí objetos, fotos o música que te conecten con razones para seguir",
				"Sumá una lista de contactos y lugares seguros",
				"Tené la caja a mano y usala cuando el malestar aumente",
			},
			DurationHint: "20 minutos",
		},
	}
}
