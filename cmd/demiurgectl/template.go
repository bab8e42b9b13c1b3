package main

import "os"

// templateConfig is the starting-point configuration -g writes: a
// synchronized-generation bit-counting run exercising one module of each
// kind.
const templateConfig = `# demiurge run configuration
random_seed: 1

populations:
  - name: main_pop
    size: 0
  - name: next_pop
    size: 0

modules:
  - name: bits
    type: BitsOrg
    params:
      N: 50
      mut_count: 2

  - name: placement
    type: GrowthPlacement
    params:
      main_pop: main_pop
      next_pop: next_pop

  - name: turnover
    type: MovePopulation
    params:
      from_pop: next_pop
      to_pop: main_pop

  - name: eval
    type: EvalCountOnes
    params:
      bits_trait: bits
      fitness_trait: fitness

  - name: select
    type: SelectElite
    params:
      fitness_trait: fitness
      top_count: 5

  - name: collect
    type: DataCollect
    params:
      target: main_pop
      data_trait: fitness
      genome_trait: bits
      output_file: output.csv

events:
  - on: START
    do:
      - "bits.INJECT(main_pop, 100)"
  - on: UPDATE
    do:
      - "eval.EVAL(main_pop)"
      - "select.SELECT(main_pop, next_pop, 100)"

run:
  updates: 100
`

func writeTemplate(path string) error {
	return os.WriteFile(path, []byte(templateConfig), 0o644)
}
